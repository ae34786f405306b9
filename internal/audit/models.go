package audit

import (
	"github.com/oralvis/oralvis-api/internal/types"
)

var schemaVersion = "1.0.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type ArtifactKind string

const (
	ArtifactPhotograph ArtifactKind = "photograph"
	ArtifactOverlay    ArtifactKind = "overlay"
	ArtifactAnnotated  ArtifactKind = "annotated_image"
	ArtifactReport     ArtifactKind = "report"
)

type EventType string

const (
	EvtSubmissionCreated   EventType = "submission_created"
	EvtSubmissionAnnotated EventType = "submission_annotated"
	EvtReportGenerated     EventType = "report_generated"
	EvtReportPreviewed     EventType = "report_previewed"
	EvtArtifactStored      EventType = "artifact_stored"
	EvtArtifactOrphaned    EventType = "artifact_orphaned"
)

type Message struct {
	ActorID       *string     `json:"actor_id"`
	SubmissionID  *string     `json:"submission_id"`
	LogContext    string      `json:"log_context" validate:"required"`
	SchemaVersion string      `json:"version"     validate:"required"`
	Disposition   Disposition `json:"disposition" validate:"required"`
	Type          EventType   `json:"event_type"  validate:"required"`

	Timestamp types.UnixMilli `json:"timestamp" validate:"required"`
}

type SubmissionCreatedEvent struct {
	PatientID  string `json:"patient_id"  validate:"required"`
	ImageCount int    `json:"image_count" validate:"required"`
}

type SubmissionCreated struct {
	Event SubmissionCreatedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionAnnotatedEvent struct {
	AnnotatedRef    string `json:"annotated_ref"    validate:"required"`
	AnnotatedSHA256 string `json:"annotated_sha256" validate:"required"`
	Reannotation    bool   `json:"reannotation"`
}

type SubmissionAnnotated struct {
	Event SubmissionAnnotatedEvent `json:"event" validate:"required"`
	Message
}

type ReportGeneratedEvent struct {
	ReportRef    string `json:"report_ref"    validate:"required"`
	ReportSHA256 string `json:"report_sha256" validate:"required"`
	Size         int    `json:"size"          validate:"required"`
	Regenerated  bool   `json:"regenerated"`
}

type ReportGenerated struct {
	Event ReportGeneratedEvent `json:"event" validate:"required"`
	Message
}

type ReportPreviewedEvent struct {
	Status types.SubmissionStatus `json:"status" validate:"required"`
}

type ReportPreviewed struct {
	Event ReportPreviewedEvent `json:"event" validate:"required"`
	Message
}

type ArtifactStoredEvent struct {
	Store     string       `json:"store"     validate:"required"`
	Reference string       `json:"reference" validate:"required"`
	SHA256    string       `json:"sha256"    validate:"required"`
	Kind      ArtifactKind `json:"kind"      validate:"required"`
}

type ArtifactStored struct {
	Event ArtifactStoredEvent `json:"event" validate:"required"`
	Message
}

type ArtifactOrphanedEvent struct {
	Store     string       `json:"store"     validate:"required"`
	Reference string       `json:"reference" validate:"required"`
	Kind      ArtifactKind `json:"kind"      validate:"required"`
	Reason    string       `json:"reason"    validate:"required"`
}

type ArtifactOrphaned struct {
	Event ArtifactOrphanedEvent `json:"event" validate:"required"`
	Message
}
