package main

import (
	"context"
	"log"
	"os"

	"github.com/careloop/medvisit/internal/infrastructure/clients/postgres"
	"github.com/careloop/medvisit/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	patient_id   TEXT PRIMARY KEY,
	symptoms     TEXT NOT NULL DEFAULT '',
	prior_visits INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS patient_medications (
	id         BIGSERIAL PRIMARY KEY,
	patient_id TEXT NOT NULL REFERENCES patients(patient_id),
	medication TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_patient_medications_patient
	ON patient_medications(patient_id);

CREATE TABLE IF NOT EXISTS visits (
	id                     TEXT PRIMARY KEY,
	patient_id             TEXT NOT NULL,
	transcript             TEXT NOT NULL,
	formal_description     TEXT NOT NULL,
	diagnosis_text         TEXT NOT NULL,
	patient_summary        TEXT NOT NULL,
	severity_score         INTEGER NOT NULL,
	summarized_diagnosis   TEXT NOT NULL DEFAULT '',
	treatment_steps        JSONB,
	appointment_schedule   TEXT NOT NULL DEFAULT '',
	prescribed_medications JSONB,
	created_at             TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visits_patient_created
	ON visits(patient_id, created_at DESC);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping tables before migrating")
		if _, err := pgClient.DB().ExecContext(ctx, `
			DROP TABLE IF EXISTS patient_medications, visits, patients CASCADE
		`); err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	log.Println("Schema applied")
}
