package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upSubmission, downSubmission)
}

// Lifecycle invariants are mirrored as check constraints so a buggy writer fails loudly
func upSubmission(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE submission (
    id UUID PRIMARY KEY,
    patient_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    note TEXT NOT NULL,
    images JSONB NOT NULL,
    annotated_image_ref TEXT,
    annotation_payload JSONB,
    report_ref TEXT,
    status TEXT NOT NULL DEFAULT 'uploaded',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT submission_status_check
        CHECK (status IN ('uploaded', 'annotated', 'reported')),
    CONSTRAINT submission_images_check
        CHECK (jsonb_typeof(images) = 'array' AND jsonb_array_length(images) > 0),
    CONSTRAINT submission_annotated_ref_check
        CHECK ((annotated_image_ref IS NOT NULL) = (status IN ('annotated', 'reported'))),
    CONSTRAINT submission_report_ref_check
        CHECK ((report_ref IS NOT NULL) = (status = 'reported'))
);`},
		statement{query: `CREATE INDEX submission_email_created_at_idx ON submission (email, created_at DESC);`},
		statement{query: `CREATE INDEX submission_created_at_idx ON submission (created_at DESC);`},
		touchTrigger("submission"),
	)
}

func downSubmission(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP TABLE IF EXISTS submission;`})
}
