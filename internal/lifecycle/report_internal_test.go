package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/types"
)

func TestDocumentStatus(t *testing.T) {
	c := &Controller{now: func() time.Time { return time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC) }}

	cases := []struct {
		from types.SubmissionStatus
		want types.SubmissionStatus
	}{
		{types.SubmissionStatusUploaded, types.SubmissionStatusUploaded},
		{types.SubmissionStatusAnnotated, types.SubmissionStatusReported},
		{types.SubmissionStatusReported, types.SubmissionStatusReported},
	}
	for _, tt := range cases {
		t.Run(string(tt.from), func(t *testing.T) {
			doc := c.document(context.Background(), &models.Submission{Status: tt.from})
			assert.Equal(t, tt.want, doc.Status)
		})
	}
}
