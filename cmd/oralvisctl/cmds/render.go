package cmds

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralvis/oralvis-api/internal/report"
	"github.com/oralvis/oralvis-api/internal/types"
)

var (
	renderImage     string
	renderOut       string
	renderTitle     string
	renderName      string
	renderPatientID string
	renderEmail     string
	renderNote      string
)

// Offline layout check, touches neither the database nor the store
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a report for a local photograph without a submission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "renderCmd")
		defer span.End()

		now := time.Now()
		doc := report.Document{
			SubmittedAt:  now,
			GeneratedAt:  now,
			SubmissionID: "preview",
			PatientID:    renderPatientID,
			Name:         renderName,
			Email:        renderEmail,
			Note:         renderNote,
			Status:       types.SubmissionStatusUploaded,
		}

		if renderImage != "" {
			img, err := os.ReadFile(renderImage)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to read image")
				return err
			}
			doc.Image = img
			doc.Status = types.SubmissionStatusAnnotated
		}

		var buf bytes.Buffer
		synth := report.New(report.Options{Title: renderTitle})
		if err := synth.Synthesize(ctx, doc, &buf); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to render report")
			return err
		}

		if err := os.WriteFile(renderOut, buf.Bytes(), 0o644); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write report")
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", renderOut, buf.Len())

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "rendered report")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderImage, "image", "", "Photograph to embed, a placeholder is drawn when empty")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "preview_report.pdf", "Output path")
	renderCmd.Flags().StringVar(&renderTitle, "title", report.DefaultTitle, "Report title")
	renderCmd.Flags().StringVar(&renderName, "name", "Jane Doe", "Patient name")
	renderCmd.Flags().StringVar(&renderPatientID, "patient-id", "PAT-000000", "Patient identifier")
	renderCmd.Flags().StringVar(&renderEmail, "email", "patient@example.com", "Patient email")
	renderCmd.Flags().StringVar(&renderNote, "note", "", "Patient note")
	rootCmd.AddCommand(renderCmd)
}
