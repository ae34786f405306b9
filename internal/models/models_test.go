package models

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/migrations"
	"github.com/oralvis/oralvis-api/internal/types"
)

type ModelsSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	repo      *SubmissionRepository
}

func (s *ModelsSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16.4-alpine",
		postgres.WithDatabase("oralvis"),
		postgres.WithUsername("oralvis"),
		postgres.WithPassword("oralvis"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	s.container = postgresContainer
	s.Require().NoError(err, "failed to start postgres container")

	dsn, err := postgresContainer.ConnectionString(ctx)
	s.Require().NoError(err, "failed to get connection string to container")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	s.Require().NoError(err, "failed to connect to the database")

	s.Require().NoError(migrations.Up(ctx, db), "failed to migrate db")

	s.db = db
	s.repo = NewSubmissionRepository(db)
}

func (s *ModelsSuite) TearDownSuite() {
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container), "failed to terminate container")
	}
}

func (s *ModelsSuite) newSubmission(email string) *Submission {
	return &Submission{
		PatientID: "PAT-" + uuid.NewString()[:6],
		Name:      "Jane Doe",
		Email:     email,
		Note:      "front teeth",
		Images:    []string{"images/1-front.jpg", "images/2-side.jpg"},
		Status:    types.SubmissionStatusUploaded,
	}
}

func (s *ModelsSuite) TestCreateAndGet() {
	ctx := context.Background()
	sub := s.newSubmission("create@example.com")

	s.Require().NoError(s.repo.Create(ctx, sub))
	s.NotEqual(uuid.Nil, sub.ID, "id should be minted on create")
	s.Equal(byte(7), sub.ID[6]>>4, "ids should be uuidv7")

	got, err := s.repo.Get(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(sub.PatientID, got.PatientID)
	s.Equal([]string{"images/1-front.jpg", "images/2-side.jpg"}, []string(got.Images))
	s.Equal("images/1-front.jpg", got.SubjectImage())
	s.Equal(types.SubmissionStatusUploaded, got.Status)
	s.False(got.AnnotatedImageRef.Valid)
	s.False(got.ReportRef.Valid)
	s.Empty(got.AnnotationPayload)
}

func (s *ModelsSuite) TestGetUnknown() {
	_, err := s.repo.Get(context.Background(), uuid.New())
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ModelsSuite) TestEmptyImagesRejected() {
	sub := s.newSubmission("empty@example.com")
	sub.Images = []string{}

	s.Require().Error(s.repo.Create(context.Background(), sub))
}

func (s *ModelsSuite) TestUpdate() {
	ctx := context.Background()
	sub := s.newSubmission("update@example.com")
	s.Require().NoError(s.repo.Create(ctx, sub))
	before := sub.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	updated, err := s.repo.Update(ctx, sub.ID, func(current *Submission) error {
		current.AnnotatedImageRef = Set("annotated/1-front.png")
		current.AnnotationPayload = []byte(`{"lines":[[1,2],[3,4]]}`)
		current.Status = types.SubmissionStatusAnnotated
		return nil
	})
	s.Require().NoError(err)
	s.Equal(types.SubmissionStatusAnnotated, updated.Status)

	got, err := s.repo.Get(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal("annotated/1-front.png", got.AnnotatedImageRef.V)
	s.JSONEq(`{"lines":[[1,2],[3,4]]}`, string(got.AnnotationPayload))
	s.True(got.UpdatedAt.After(before), "updated_at should move forward")
	s.Equal(sub.CreatedAt.UnixMicro(), got.CreatedAt.UnixMicro())
}

func (s *ModelsSuite) TestUpdateMutatorErrorWritesNothing() {
	ctx := context.Background()
	sub := s.newSubmission("mutator@example.com")
	s.Require().NoError(s.repo.Create(ctx, sub))

	expected := fmt.Errorf("nope")
	_, err := s.repo.Update(ctx, sub.ID, func(current *Submission) error {
		current.Name = "changed"
		return expected
	})
	s.Require().ErrorIs(err, expected)

	got, err := s.repo.Get(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal("Jane Doe", got.Name)
}

func (s *ModelsSuite) TestUpdateUnknown() {
	_, err := s.repo.Update(context.Background(), uuid.New(), func(*Submission) error { return nil })
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ModelsSuite) TestInvariantConstraints() {
	ctx := context.Background()
	sub := s.newSubmission("constraints@example.com")
	s.Require().NoError(s.repo.Create(ctx, sub))

	_, err := s.repo.Update(ctx, sub.ID, func(current *Submission) error {
		current.Status = types.SubmissionStatusAnnotated
		return nil
	})
	s.Require().Error(err, "annotated without an annotated image should be rejected")

	_, err = s.repo.Update(ctx, sub.ID, func(current *Submission) error {
		current.AnnotatedImageRef = Set("annotated/x.png")
		current.Status = types.SubmissionStatusReported
		return nil
	})
	s.Require().Error(err, "reported without a report should be rejected")
}

func (s *ModelsSuite) TestConcurrentUpdatesSerialized() {
	ctx := context.Background()
	sub := s.newSubmission("concurrent@example.com")
	s.Require().NoError(s.repo.Create(ctx, sub))

	const writers = 8
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.Update(ctx, sub.ID, func(current *Submission) error {
				current.Images = append(current.Images, fmt.Sprintf("images/extra-%d.jpg", i))
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.repo.Get(ctx, sub.ID)
	s.Require().NoError(err)
	s.Len(got.Images, 2+writers, "no update should be lost")
}

func (s *ModelsSuite) TestListOrdering() {
	ctx := context.Background()
	email := "list-" + uuid.NewString() + "@example.com"

	var ids []uuid.UUID
	for range 3 {
		sub := s.newSubmission(email)
		s.Require().NoError(s.repo.Create(ctx, sub))
		ids = append(ids, sub.ID)
		time.Sleep(5 * time.Millisecond)
	}
	s.Require().NoError(s.repo.Create(ctx, s.newSubmission("someone-else@example.com")))

	mine, err := s.repo.ListByEmail(ctx, email)
	s.Require().NoError(err)
	s.Require().Len(mine, 3)
	s.Equal(ids[2], mine[0].ID)
	s.Equal(ids[0], mine[2].ID)

	all, err := s.repo.ListAll(ctx)
	s.Require().NoError(err)
	s.GreaterOrEqual(len(all), 4)
	for i := 1; i < len(all); i++ {
		s.False(all[i].CreatedAt.After(all[i-1].CreatedAt), "list should be newest first")
	}
}

func (s *ModelsSuite) TestReviewers() {
	ctx := context.Background()

	tru := true
	reviewers := []config.Reviewer{
		{ID: uuid.NewString(), Note: "Dr. A", APIKey: config.ReviewerAPIKey{Token: "secret-a", Active: &tru}},
		{ID: uuid.NewString(), Note: "Dr. B", APIKey: config.ReviewerAPIKey{Token: "secret-b", Active: &tru}},
	}
	s.Require().NoError(LoadReviewersFromConfig(ctx, s.db, reviewers))

	for _, r := range reviewers {
		got, err := ByID[Reviewer](ctx, s.db, uuid.MustParse(r.ID))
		s.Require().NoError(err)
		s.True(got.IsActive())
		s.NotEqual(r.APIKey.Token, got.Token, "token should be hashed")
	}

	s.Require().NoError(LoadReviewersFromConfig(ctx, s.db, reviewers[:1]))

	kept, err := ByID[Reviewer](ctx, s.db, uuid.MustParse(reviewers[0].ID))
	s.Require().NoError(err)
	s.True(kept.IsActive())

	dropped, err := ByID[Reviewer](ctx, s.db, uuid.MustParse(reviewers[1].ID))
	s.Require().NoError(err)
	s.False(dropped.IsActive(), "reviewers removed from config should be deactivated")
}

func TestModels(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	suite.Run(t, new(ModelsSuite))
}

func TestToAPI(t *testing.T) {
	id := uuid.New()
	sub := Submission{
		Model:             Model{ID: id},
		PatientID:         "PAT-1",
		Images:            []string{"images/a.jpg"},
		AnnotatedImageRef: Set("annotated/b.png"),
		AnnotationPayload: []byte(`{"k":1}`),
		Status:            types.SubmissionStatusAnnotated,
	}

	out := sub.ToAPI(func(ref string) string { return "/uploads/" + ref })

	assert.Equal(t, id.String(), out.ID)
	assert.Equal(t, []string{"/uploads/images/a.jpg"}, out.Images)
	require.NotNil(t, out.AnnotatedImageURL)
	assert.Equal(t, "/uploads/annotated/b.png", *out.AnnotatedImageURL)
	assert.Nil(t, out.ReportURL)
	assert.JSONEq(t, `{"k":1}`, string(out.AnnotationData))

	refs := sub.References()
	assert.Equal(t, []string{"images/a.jpg"}, refs["images"])
	assert.Equal(t, []string{"annotated/b.png"}, refs["annotatedImageRef"])
	assert.NotContains(t, refs, "reportRef")
}
