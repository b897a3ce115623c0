package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/careloop/medvisit/internal/adapters/cache"
	"github.com/careloop/medvisit/internal/adapters/database"
	"github.com/careloop/medvisit/internal/adapters/events"
	"github.com/careloop/medvisit/internal/adapters/memory"
	"github.com/careloop/medvisit/internal/application/services"
	"github.com/careloop/medvisit/internal/domain/providers"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/clients/openai"
	"github.com/careloop/medvisit/internal/infrastructure/clients/postgres"
	redisclient "github.com/careloop/medvisit/internal/infrastructure/clients/redis"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
	"github.com/careloop/medvisit/pkg/config"
)

const defaultTranscript = "I have been having headaches and dizziness for the past week. " +
	"I am taking Metformin and recently started Ibuprofen for the pain."

const defaultPatientID = "123"

func main() {
	task := flag.String("task", "", "run a single workflow step: describe, diagnose or simplify")
	storage := flag.String("storage", "", "patient history backend override: memory or postgres")
	useRedis := flag.Bool("redis", false, "enable the Redis record cache and visit event bus")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	transcript := defaultTranscript
	if flag.NArg() > 0 {
		transcript = flag.Arg(0)
	}
	patientID := defaultPatientID
	if flag.NArg() > 1 {
		patientID = flag.Arg(1)
	}

	backend := cfg.Storage.Backend
	if *storage != "" {
		backend = *storage
	}

	var patients repositories.PatientRepository
	var visits repositories.VisitRepository
	var eventBus providers.EventBus

	switch backend {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
		}
		defer pgClient.Close()

		patients = database.NewPatientAdapter(pgClient, metrics)
		visits = database.NewVisitAdapter(pgClient, metrics)

		if *useRedis {
			rdClient, err := redisclient.NewClient(&cfg.Redis)
			if err != nil {
				log.Fatalf("Failed to initialize Redis client: %v", err)
			}
			defer rdClient.Close()

			patients = database.NewCachedPatientAdapter(patients, cache.NewRedisAdapter(rdClient), metrics)
			eventBus = events.NewRedisEventBus(rdClient)
			defer eventBus.Close()
		}
	case "memory", "":
		patients = memory.NewPatientStore()
		visits = memory.NewVisitStore()
	default:
		log.Fatalf("Unknown storage backend: %s", backend)
	}

	generator, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	checker := services.NewInteractionCheckerWithFallback(cfg.Orchestrator.InteractionsPath)

	visitService := services.NewVisitService(
		patients,
		visits,
		generator,
		checker,
		services.NewSeverityClassifier(),
		services.NewFollowUpScheduler(cfg.Orchestrator.ReferenceDate),
		services.NewMedicationExtractor(checker, cfg.Orchestrator.ExtraMedications),
		eventBus,
		cfg.Orchestrator,
	)

	start := time.Now()
	runErr := run(ctx, visitService, *task, transcript, patientID)
	observability.RecordVisitMetric(ctx, metrics, taskName(*task), patientID, runErr != nil, time.Since(start))

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func taskName(task string) string {
	if task == "" {
		return "visit"
	}
	return task
}

func run(ctx context.Context, svc *services.VisitService, task, transcript, patientID string) error {
	if task != "" {
		output, err := svc.RunTask(ctx, task, transcript, patientID)
		if err != nil {
			return err
		}
		fmt.Println(output)
		return nil
	}

	record, err := svc.RunVisit(ctx, transcript, patientID)
	if err != nil {
		return err
	}

	fmt.Println("=== Formal Description ===")
	fmt.Println(record.FormalDescription)
	fmt.Println()
	fmt.Println("=== Diagnosis ===")
	fmt.Println(record.DiagnosisText)
	fmt.Println()
	fmt.Println("=== Patient Summary ===")
	fmt.Println(record.PatientSummary)
	fmt.Printf("\nSeverity: %d/10\n", record.SeverityScore)
	if record.AppointmentSchedule != "" {
		fmt.Printf("Follow-up: %s\n", record.AppointmentSchedule)
	}
	return nil
}
