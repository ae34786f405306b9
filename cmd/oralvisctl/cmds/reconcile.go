package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralvis/oralvis-api/internal/exitcode"
	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List submission references whose artifact is missing from the store",
	Long: "Checks every artifact reference of every submission against the configured store and " +
		"prints the result as JSON. Exits 3 when anything is missing.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "reconcileCmd")
		defer span.End()

		env, err := openEnvironment(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open environment")
			return err
		}
		defer env.close()

		controller := lifecycle.FromConfig(env.config, env.db, env.store)
		result, err := controller.Reconcile(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to reconcile")
			return err
		}

		span.SetAttributes(
			attribute.Int("submissions.checked", result.Checked),
			attribute.Int("artifacts.missing", len(result.Missing)),
		)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to encode result")
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if len(result.Missing) > 0 {
			logger.Logger.WarnContext(ctx, "artifacts missing", "count", len(result.Missing))
			span.SetStatus(codes.Ok, "found missing artifacts")
			return exitcode.With(exitcode.Findings, nil)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "store consistent")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
