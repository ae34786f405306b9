package cmds

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralvis/oralvis-api/internal/lifecycle"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <submission id>",
	Short: "Generate the report of a submission",
	Long: "Runs the same report generation a reviewer triggers. Annotated and reported submissions get " +
		"their stored report written and the submission marked reported; uploaded ones only get a preview.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "reportCmd")
		defer span.End()

		id, err := uuid.Parse(args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid submission id")
			return fmt.Errorf("invalid submission id %q: %w", args[0], err)
		}
		span.SetAttributes(attribute.String("submission.id", id.String()))

		env, err := openEnvironment(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open environment")
			return err
		}
		defer env.close()

		controller := lifecycle.FromConfig(env.config, env.db, env.store)
		sub, err := controller.Get(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load submission")
			return err
		}

		out := reportOut
		if out == "" {
			out = lifecycle.ReportFilename(sub)
		}
		f, err := os.Create(out)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create output file")
			return err
		}
		defer f.Close()

		ctx = lifecycle.WithActor(ctx, "oralvisctl")
		result, err := controller.GenerateReport(ctx, id, f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to generate report")
			return err
		}
		if err := f.Close(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write output file")
			return err
		}

		if result.Persisted {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (stored as %s, sha256 %s)\n", out, result.Ref, result.SHA256)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote preview %s\n", out)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "generated report")
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output path, defaults to the report's download name")
	rootCmd.AddCommand(reportCmd)
}
