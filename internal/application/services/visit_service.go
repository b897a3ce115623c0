package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/providers"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
	"github.com/careloop/medvisit/pkg/config"
	apperrors "github.com/careloop/medvisit/pkg/errors"
	"github.com/careloop/medvisit/pkg/retry"
)

const (
	generationMaxTokens   = 500
	generationTemperature = 0.7
)

var (
	stageCounterOnce sync.Once
	stageCounter     metric.Int64Counter
)

// VisitService sequences the three-step visit workflow: formal description,
// diagnosis against stored history, and plain-language summary.
//
// Visits for different patients may run concurrently. Within one patient the
// steps race against the history store, so the service serializes all work
// per patient identifier with a keyed mutex.
type VisitService struct {
	patients   repositories.PatientRepository
	visits     repositories.VisitRepository
	generator  providers.TextGenerator
	checker    *InteractionChecker
	classifier *SeverityClassifier
	scheduler  *FollowUpScheduler
	extractor  *MedicationExtractor
	eventBus   providers.EventBus
	cfg        config.OrchestratorConfig

	mu          sync.Mutex
	patientLock map[string]*sync.Mutex
}

// NewVisitService creates a new visit orchestrator. visits and eventBus may
// be nil; persistence of visit artifacts and event publication are then
// skipped.
func NewVisitService(
	patients repositories.PatientRepository,
	visits repositories.VisitRepository,
	generator providers.TextGenerator,
	checker *InteractionChecker,
	classifier *SeverityClassifier,
	scheduler *FollowUpScheduler,
	extractor *MedicationExtractor,
	eventBus providers.EventBus,
	cfg config.OrchestratorConfig,
) *VisitService {
	return &VisitService{
		patients:    patients,
		visits:      visits,
		generator:   generator,
		checker:     checker,
		classifier:  classifier,
		scheduler:   scheduler,
		extractor:   extractor,
		eventBus:    eventBus,
		cfg:         cfg,
		patientLock: make(map[string]*sync.Mutex),
	}
}

// lockPatient serializes visit steps per patient identifier
func (s *VisitService) lockPatient(patientID string) func() {
	s.mu.Lock()
	lock, ok := s.patientLock[patientID]
	if !ok {
		lock = &sync.Mutex{}
		s.patientLock[patientID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// DescribeSymptoms rewrites a raw transcript into a formal clinical
// description and records the raw transcript as the patient's most recent
// symptoms.
func (s *VisitService) DescribeSymptoms(ctx context.Context, transcript, patientID string) (string, error) {
	unlock := s.lockPatient(patientID)
	defer unlock()
	return s.describeLocked(ctx, transcript, patientID)
}

func (s *VisitService) describeLocked(ctx context.Context, transcript, patientID string) (_ string, err error) {
	ctx, span := observability.StartSpan(ctx, "visit.describe")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()
	recordStage(ctx, "describe")

	formal, err := s.callGenerator(ctx, describeSystemPrompt, buildDescribeUserPrompt(transcript))
	if err != nil {
		return "", err
	}

	// The raw transcript is stored, not the generated description; the
	// diagnose step quotes the patient's own words back into its prompt.
	if err := s.patients.UpdateSymptoms(ctx, patientID, transcript); err != nil {
		return "", apperrors.NewInternalError("failed to store patient symptoms", err)
	}

	return formal, nil
}

// Diagnose produces a diagnosis for the patient's current transcript. With
// recorded history it diagnoses from prior plus current symptoms and
// includes one resolved follow-up date in the prompt; without history it
// degrades to a single-visit diagnosis instead of failing.
//
// Interaction findings between the medication history and currentMeds are
// logged and fed to the generation context as an advisory block; they are
// never returned to the caller. currentMeds are appended to the history
// after every transport-successful call, even when the generated content
// cannot be parsed.
func (s *VisitService) Diagnose(ctx context.Context, transcript, patientID string, currentMeds []string) (*entities.DiagnosisPackage, string, error) {
	unlock := s.lockPatient(patientID)
	defer unlock()
	return s.diagnoseLocked(ctx, transcript, patientID, currentMeds)
}

func (s *VisitService) diagnoseLocked(ctx context.Context, transcript, patientID string, currentMeds []string) (_ *entities.DiagnosisPackage, _ string, err error) {
	ctx, span := observability.StartSpan(ctx, "visit.diagnose")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()
	recordStage(ctx, "diagnose")
	logger := observability.LoggerFromContext(ctx)

	record, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to load patient record", err)
	}

	var priorSymptoms string
	var historicalMeds []string
	if record != nil {
		priorSymptoms = record.Symptoms
		historicalMeds = record.Medications
	}

	findings := s.checker.Check(historicalMeds, currentMeds)
	for _, f := range findings {
		logger.Warn().
			Str("patient_id", patientID).
			Str("severity", string(f.Severity)).
			Str("message", f.Message).
			Msg("medication interaction detected")
	}

	var followUpDate string
	if record.HasPriorHistory() {
		followUpDate, err = s.scheduler.Schedule(s.cfg.FollowUpMinDays, s.cfg.FollowUpMaxDays)
		if err != nil {
			return nil, "", apperrors.NewInternalError("failed to schedule follow-up", err)
		}
	} else {
		logger.Info().
			Str("patient_id", patientID).
			Msg("no prior symptoms recorded, diagnosing from current symptoms only")
	}

	prompt := buildDiagnoseUserPrompt(priorSymptoms, transcript, buildAdvisoryBlock(findings), followUpDate)

	text, err := s.callGenerator(ctx, diagnoseSystemPrompt, prompt)
	if err != nil {
		return nil, "", err
	}

	// Transport succeeded: the medication history grows regardless of
	// whether the content below parses.
	if err := s.patients.AppendMedications(ctx, patientID, currentMeds); err != nil {
		return nil, "", apperrors.NewInternalError("failed to append medications", err)
	}

	pkg, parseErr := parseDiagnosisPayload(text)
	if parseErr != nil {
		return nil, text, apperrors.NewMalformedResponseError("diagnosis output did not match the expected schema", parseErr)
	}
	if pkg.AppointmentSchedule == "" {
		pkg.AppointmentSchedule = followUpDate
	}

	return pkg, text, nil
}

// Simplify rewrites a diagnosis for a layperson and classifies its severity.
// A score above the baseline schedules (and logs) one follow-up date; no
// patient record is touched.
func (s *VisitService) Simplify(ctx context.Context, diagnosisText string) (_ string, _ int, err error) {
	ctx, span := observability.StartSpan(ctx, "visit.simplify")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()
	recordStage(ctx, "simplify")
	logger := observability.LoggerFromContext(ctx)

	text, err := s.callGenerator(ctx, simplifySystemPrompt, buildSimplifyUserPrompt(diagnosisText))
	if err != nil {
		return "", 0, err
	}

	score := s.classifier.Classify(text)
	if IsSevere(score) {
		followUp, schedErr := s.scheduler.Schedule(s.cfg.FollowUpMinDays, s.cfg.FollowUpMaxDays)
		if schedErr != nil {
			return "", 0, apperrors.NewInternalError("failed to schedule follow-up", schedErr)
		}
		logger.Info().
			Int("severity", score).
			Str("appointment_schedule", followUp).
			Msg("severe summary, follow-up scheduled")
	}

	return text, score, nil
}

// RunVisit executes the full workflow for one visit: medication extraction,
// describe, diagnose, simplify. A failure in any step aborts the later ones.
// The completed visit is persisted and announced on the event bus when those
// collaborators are configured.
func (s *VisitService) RunVisit(ctx context.Context, transcript, patientID string) (*entities.VisitRecord, error) {
	unlock := s.lockPatient(patientID)
	defer unlock()

	currentMeds := s.extractor.Extract(transcript)

	record, err := s.runVisitLocked(ctx, transcript, patientID, currentMeds)
	if err != nil {
		s.publishEvent(ctx, &entities.VisitEvent{
			ID:        uuid.New().String(),
			Type:      entities.VisitEventFailed,
			PatientID: patientID,
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
		return nil, err
	}

	s.publishEvent(ctx, &entities.VisitEvent{
		ID:        uuid.New().String(),
		Type:      entities.VisitEventCompleted,
		PatientID: patientID,
		VisitID:   record.ID,
		Timestamp: time.Now(),
	})
	return record, nil
}

func (s *VisitService) runVisitLocked(ctx context.Context, transcript, patientID string, currentMeds []string) (*entities.VisitRecord, error) {
	formal, err := s.describeLocked(ctx, transcript, patientID)
	if err != nil {
		return nil, err
	}

	pkg, diagnosisText, err := s.diagnoseLocked(ctx, transcript, patientID, currentMeds)
	if err != nil {
		return nil, err
	}

	summary, score, err := s.Simplify(ctx, diagnosisText)
	if err != nil {
		return nil, err
	}

	record := &entities.VisitRecord{
		ID:                    uuid.New().String(),
		PatientID:             patientID,
		Transcript:            transcript,
		FormalDescription:     formal,
		DiagnosisText:         diagnosisText,
		PatientSummary:        summary,
		SeverityScore:         score,
		SummarizedDiagnosis:   pkg.SummarizedDiagnosis,
		TreatmentSteps:        pkg.TreatmentSteps,
		AppointmentSchedule:   pkg.AppointmentSchedule,
		PrescribedMedications: pkg.PrescribedMedications,
		CreatedAt:             time.Now(),
	}

	if s.visits != nil {
		if err := s.visits.Create(ctx, record); err != nil {
			return nil, apperrors.NewInternalError("failed to persist visit record", err)
		}
	}

	return record, nil
}

// RunTask executes a single named workflow step, as exposed by the CLI.
// An unrecognized task fails fast without touching any state.
func (s *VisitService) RunTask(ctx context.Context, task, transcript, patientID string) (string, error) {
	switch task {
	case "describe":
		return s.DescribeSymptoms(ctx, transcript, patientID)
	case "diagnose":
		_, text, err := s.Diagnose(ctx, transcript, patientID, s.extractor.Extract(transcript))
		return text, err
	case "simplify":
		text, _, err := s.Simplify(ctx, transcript)
		return text, err
	default:
		return "", apperrors.NewInvalidTaskError("unknown workflow task: " + task)
	}
}

// callGenerator performs one bounded generation round-trip. Every failure,
// including a deadline expiry, is classified as a retryable transport
// failure; retries happen only when MaxCallAttempts allows them.
func (s *VisitService) callGenerator(ctx context.Context, systemRole, userPrompt string) (string, error) {
	attempts := s.cfg.MaxCallAttempts
	if attempts < 1 {
		attempts = 1
	}

	retryCfg := retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	logger := observability.LoggerFromContext(ctx)

	var text string
	err := retry.Do(ctx, retryCfg, func() error {
		callCtx := ctx
		if s.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
			defer cancel()
		}

		result, genErr := s.generator.Generate(callCtx, providers.GenerationRequest{
			SystemRole:      systemRole,
			UserPrompt:      userPrompt,
			MaxOutputTokens: generationMaxTokens,
			Temperature:     generationTemperature,
		})
		if genErr != nil {
			return genErr
		}
		text = result
		return nil
	}, func(attempt int, attemptErr error, nextDelay time.Duration) {
		logger.Warn().
			Int("attempt", attempt).
			Err(attemptErr).
			Dur("next_delay", nextDelay).
			Msg("text generation attempt failed, retrying")
	})

	if err != nil {
		return "", apperrors.NewTransportError("text generation failed", err)
	}
	return text, nil
}

func (s *VisitService) publishEvent(ctx context.Context, event *entities.VisitEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.GetPatientChannel(event.PatientID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish visit event")
	}
}

func recordStage(ctx context.Context, stage string) {
	stageCounterOnce.Do(func() {
		meter := otel.Meter("github.com/careloop/medvisit")
		counter, err := meter.Int64Counter(
			"visit.stage.count",
			metric.WithDescription("Number of visit workflow stage executions"),
		)
		if err != nil {
			return
		}
		stageCounter = counter
	})
	if stageCounter == nil {
		return
	}
	stageCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("visit.stage", stage)))
}
