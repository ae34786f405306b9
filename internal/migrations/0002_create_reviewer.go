package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upReviewer, downReviewer)
}

// Reviewer rows are synced from configuration on boot. Tokens are only ever stored hashed.
func upReviewer(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE reviewer (
    id          UUID PRIMARY KEY,
    token       TEXT NOT NULL CONSTRAINT reviewer_token_hashed CHECK (token LIKE '$argon2id$%'),
    note        TEXT NOT NULL DEFAULT '',
    active      BOOLEAN DEFAULT true,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`},
		touchTrigger("reviewer"),
	)
}

func downReviewer(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP TABLE IF EXISTS reviewer;`})
}
