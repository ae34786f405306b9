package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/types"
)

type Context struct {
	// Reviewer id or patient email that triggered the event, nil for system actions
	ActorID      *string
	SubmissionID string
}

func newMessage(c Context, evt EventType, disposition Disposition) Message {
	msg := Message{
		ActorID:       c.ActorID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Disposition:   disposition,
		Type:          evt,
		Timestamp:     types.NewUnixMilli(time.Now()),
	}
	if c.SubmissionID != "" {
		id := c.SubmissionID
		msg.SubmissionID = &id
	}
	return msg
}

// Audit lines go to stdout, one JSON object per line, apart from the slog stream on stderr.
var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects audit lines and returns a func restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return func() {
		outMu.Lock()
		defer outMu.Unlock()
		out = prev
	}
}

func emit(event any, evt EventType, args ...any) {
	line, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error(
			fmt.Sprintf("could not serialize %s event", evt),
			append([]any{"error", err}, args...)...,
		)
		return
	}
	line = append(line, '\n')

	outMu.Lock()
	defer outMu.Unlock()
	if _, err := out.Write(line); err != nil {
		logger.Logger.Error("could not write audit event", append([]any{"event", evt, "error", err}, args...)...)
	}
}

func LogSubmissionCreated(c Context, patientID string, imageCount int) {
	event := SubmissionCreated{}
	event.Message = newMessage(c, EvtSubmissionCreated, DispositionNeutral)

	event.Event.PatientID = patientID
	event.Event.ImageCount = imageCount

	emit(event, EvtSubmissionCreated, "patientID", patientID, "imageCount", imageCount)
}

func LogSubmissionAnnotated(c Context, annotatedRef string, annotatedSHA256 string, reannotation bool) {
	event := SubmissionAnnotated{}
	event.Message = newMessage(c, EvtSubmissionAnnotated, DispositionGood)

	event.Event.AnnotatedRef = annotatedRef
	event.Event.AnnotatedSHA256 = annotatedSHA256
	event.Event.Reannotation = reannotation

	emit(
		event,
		EvtSubmissionAnnotated,
		"annotatedRef",
		annotatedRef,
		"annotatedSHA256",
		annotatedSHA256,
	)
}

func LogReportGenerated(c Context, reportRef string, reportSHA256 string, size int, regenerated bool) {
	event := ReportGenerated{}
	event.Message = newMessage(c, EvtReportGenerated, DispositionGood)

	event.Event.ReportRef = reportRef
	event.Event.ReportSHA256 = reportSHA256
	event.Event.Size = size
	event.Event.Regenerated = regenerated

	emit(event, EvtReportGenerated, "reportRef", reportRef, "reportSHA256", reportSHA256)
}

func LogReportPreviewed(c Context, status types.SubmissionStatus) {
	event := ReportPreviewed{}
	event.Message = newMessage(c, EvtReportPreviewed, DispositionNeutral)

	event.Event.Status = status

	emit(event, EvtReportPreviewed, "status", status)
}

func LogArtifactStored(c Context, store string, reference string, sha256 string, kind ArtifactKind) {
	event := ArtifactStored{}
	event.Message = newMessage(c, EvtArtifactStored, DispositionNeutral)

	event.Event.Store = store
	event.Event.Reference = reference
	event.Event.SHA256 = sha256
	event.Event.Kind = kind

	emit(event, EvtArtifactStored, "store", store, "reference", reference, "kind", kind)
}

// Artifact written to the store but never referenced by a record
func LogArtifactOrphaned(c Context, store string, reference string, kind ArtifactKind, reason string) {
	event := ArtifactOrphaned{}
	event.Message = newMessage(c, EvtArtifactOrphaned, DispositionBad)

	event.Event.Store = store
	event.Event.Reference = reference
	event.Event.Kind = kind
	event.Event.Reason = reason

	emit(
		event,
		EvtArtifactOrphaned,
		"store",
		store,
		"reference",
		reference,
		"kind",
		kind,
		"reason",
		reason,
	)
}
