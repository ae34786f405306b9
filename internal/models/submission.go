package models

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/oralvis/oralvis-api/internal/types"
)

type Submission struct {
	PatientID string
	Name      string
	Email     string
	Note      string
	// Artifact references, the first one is the subject photograph
	Images            datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	AnnotatedImageRef datatypes.Null[string]
	// Reviewer markup, stored verbatim
	AnnotationPayload datatypes.JSON `gorm:"type:jsonb"`
	ReportRef         datatypes.Null[string]
	Status            types.SubmissionStatus
	Model
}

func (Submission) TableName() string {
	return "submission"
}

// Reference of the photograph annotations are drawn on
func (s Submission) SubjectImage() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[0]
}

// Every artifact reference held by the record, keyed by field
func (s Submission) References() map[string][]string {
	refs := map[string][]string{"images": append([]string(nil), s.Images...)}
	if s.AnnotatedImageRef.Valid {
		refs["annotatedImageRef"] = []string{s.AnnotatedImageRef.V}
	}
	if s.ReportRef.Valid {
		refs["reportRef"] = []string{s.ReportRef.V}
	}
	return refs
}

// Caller facing view. `url` maps an artifact reference to a download location.
func (s Submission) ToAPI(url func(ref string) string) types.Submission {
	images := make([]string, len(s.Images))
	for i, ref := range s.Images {
		images[i] = url(ref)
	}

	out := types.Submission{
		ID:        s.ID.String(),
		PatientID: s.PatientID,
		Name:      s.Name,
		Email:     s.Email,
		Note:      s.Note,
		Images:    images,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}

	if s.AnnotatedImageRef.Valid {
		u := url(s.AnnotatedImageRef.V)
		out.AnnotatedImageURL = &u
	}
	if s.ReportRef.Valid {
		u := url(s.ReportRef.V)
		out.ReportURL = &u
	}
	if len(s.AnnotationPayload) != 0 {
		out.AnnotationData = json.RawMessage(s.AnnotationPayload)
	}

	return out
}
