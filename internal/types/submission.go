package types

import (
	"encoding/json"
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusUploaded  SubmissionStatus = "uploaded"  // Photographs stored, waiting for a reviewer
	SubmissionStatusAnnotated SubmissionStatus = "annotated" // Reviewer overlay composited onto the subject photograph
	SubmissionStatusReported  SubmissionStatus = "reported"  // PDF report generated and persisted
)

// Position in the forward-only lifecycle. Unknown statuses rank below uploaded.
func (s SubmissionStatus) Rank() int {
	switch s {
	case SubmissionStatusUploaded:
		return 1
	case SubmissionStatusAnnotated:
		return 2
	case SubmissionStatusReported:
		return 3
	default:
		return 0
	}
}

func (s SubmissionStatus) Valid() bool {
	return s.Rank() > 0
}

type (
	// Caller facing view of a submission
	Submission struct {
		ID                string           `json:"id"                          validate:"required,uuid_rfc4122" format:"uuid"`
		PatientID         string           `json:"patientId"                   validate:"required"`
		Name              string           `json:"name"                        validate:"required"`
		Email             string           `json:"email"                       validate:"required,email"`
		Note              string           `json:"note"                        validate:"required"`
		Images            []string         `json:"images"                      validate:"required,min=1"`
		AnnotatedImageURL *string          `json:"annotatedImageUrl,omitempty"`
		AnnotationData    json.RawMessage  `json:"annotationData,omitempty"    swaggertype:"object"`
		ReportURL         *string          `json:"reportUrl,omitempty"`
		Status            SubmissionStatus `json:"status"                      validate:"required,oneof=uploaded annotated reported"`
		CreatedAt         time.Time        `json:"createdAt"`
		UpdatedAt         time.Time        `json:"updatedAt"`
	}

	SubmissionResponse struct {
		Message string     `json:"message"`
		Data    Submission `json:"data"`
	}

	SubmissionListResponse struct {
		Message string       `json:"message"`
		Data    []Submission `json:"data"`
	}

	// Multipart form fields accompanying the uploaded photographs
	CreateSubmission struct {
		Name      string `form:"name"      json:"name"      validate:"required,notblank,max=120"`
		PatientID string `form:"patientId" json:"patientId" validate:"required,notblank,max=64"`
		Email     string `form:"email"     json:"email"     validate:"required,email"`
		Note      string `form:"note"      json:"note"      validate:"required,notblank,max=4000"`
	}

	AnnotateSubmission struct {
		// Opaque markup description produced by the drawing widget. Stored verbatim.
		AnnotationJSON json.RawMessage `json:"annotationJson"                    swaggertype:"object"`
		// Base64 encoded transparent PNG overlay, a `data:image/png;base64,` prefix is accepted
		AnnotatedImage string `json:"annotatedImage" validate:"required"`
	}

	MissingArtifact struct {
		SubmissionID string `json:"submissionId"`
		Field        string `json:"field"`
		Reference    string `json:"reference"`
	}

	ReconcileResponse struct {
		Checked int               `json:"checked"`
		Missing []MissingArtifact `json:"missing"`
	}
)
