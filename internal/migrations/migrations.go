// Package migrations holds the goose schema history. Each file registers one
// Go migration; the version comes from the numeric file prefix.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/migrations")

func sqlDB(db *gorm.DB) (*sql.DB, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("goose dialect: %w", err)
	}

	return db.DB()
}

// Up applies every pending migration and records the resulting schema version on the span.
func Up(ctx context.Context, db *gorm.DB) error {
	ctx, span := tracer.Start(ctx, "Up")
	defer span.End()

	raw, err := sqlDB(db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open migration connection")
		return err
	}

	if err := goose.UpContext(ctx, raw, "."); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply migrations")
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read schema version")
		return err
	}
	span.SetAttributes(attribute.Int64("schema.version", version))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "schema up to date")
	return nil
}

// Down rolls the schema all the way back. Only tests use it.
func Down(ctx context.Context, db *gorm.DB) error {
	raw, err := sqlDB(db)
	if err != nil {
		return err
	}

	return goose.DownToContext(ctx, raw, ".", 0)
}

type statement struct {
	query string
	args  []any
}

func execStatements(ctx context.Context, tx *sql.Tx, statements ...statement) error {
	for i, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}

	return nil
}

func touchTrigger(table string) statement {
	return statement{query: fmt.Sprintf(
		`CREATE TRIGGER %[1]s_set_updated_at BEFORE UPDATE ON %[1]s FOR EACH ROW EXECUTE FUNCTION set_updated_at();`,
		table,
	)}
}
