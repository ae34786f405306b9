package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upSetUpdatedAt, downSetUpdatedAt)
}

// Row ids are uuidv7 values minted by the application, so the only shared
// database function is the updated_at bump used by every table trigger.
func upSetUpdatedAt(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS TRIGGER
LANGUAGE plpgsql AS $body$
BEGIN
    IF NEW IS DISTINCT FROM OLD THEN
        NEW.updated_at := now();
    END IF;
    RETURN NEW;
END;
$body$;`})
}

func downSetUpdatedAt(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP FUNCTION IF EXISTS set_updated_at();`})
}
