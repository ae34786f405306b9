package lifecycle_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/models"
)

// In memory Repository with the same per record atomicity as the database one
type memRepo struct {
	records map[uuid.UUID]models.Submission
	clock   time.Time
	mu      sync.Mutex
}

func newMemRepo() *memRepo {
	return &memRepo{
		records: map[uuid.UUID]models.Submission{},
		clock:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func clone(s models.Submission) models.Submission {
	s.Images = slices.Clone(s.Images)
	s.AnnotationPayload = slices.Clone(s.AnnotationPayload)
	return s
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) Create(_ context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = uuid.Must(uuid.NewV7())
	s.CreatedAt = r.tick()
	s.UpdatedAt = s.CreatedAt
	r.records[s.ID] = clone(*s)
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	s = clone(s)
	return &s, nil
}

func (r *memRepo) Update(
	_ context.Context,
	id uuid.UUID,
	mutate func(*models.Submission) error,
) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	s = clone(s)
	if err := mutate(&s); err != nil {
		return nil, err
	}
	s.UpdatedAt = r.tick()
	r.records[id] = clone(s)
	return &s, nil
}

func (r *memRepo) list(keep func(models.Submission) bool) []models.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Submission{}
	for _, s := range r.records {
		if keep(s) {
			out = append(out, clone(s))
		}
	}
	slices.SortFunc(out, func(a, b models.Submission) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (r *memRepo) ListAll(_ context.Context) ([]models.Submission, error) {
	return r.list(func(models.Submission) bool { return true }), nil
}

func (r *memRepo) ListByEmail(_ context.Context, email string) ([]models.Submission, error) {
	return r.list(func(s models.Submission) bool { return s.Email == email }), nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// Transparent overlay with an opaque red block in its top left quarter
func markupPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h / 2 {
		for x := range w / 2 {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
