package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/patienttoken"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func patientHandler() *Handler {
	return &Handler{JWTSecret: testSecret, CookieName: "token"}
}

func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, c, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestPatientJWT(t *testing.T) {
	h := patientHandler()
	now := time.Now()

	valid, err := patienttoken.Issue(testSecret, "user-1", "jane@example.com", time.Hour, now)
	require.NoError(t, err)

	t.Run("Bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+valid)

		rec, c, err := serve(t, h.PatientJWT(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		claims, ok := c.Get(PatientKey).(*patienttoken.Claims)
		require.True(t, ok)
		assert.Equal(t, "jane@example.com", claims.Email)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: valid})

		_, _, err := serve(t, h.PatientJWT(), req)
		require.NoError(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, _, err := serve(t, h.PatientJWT(), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		forged, err := patienttoken.Issue([]byte("another secret of enough length"), "user-1", "jane@example.com", time.Hour, now)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
		_, _, err = serve(t, h.PatientJWT(), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("Expired", func(t *testing.T) {
		expired, err := patienttoken.Issue(testSecret, "user-1", "jane@example.com", time.Hour, now.Add(-2*time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
		_, _, err = serve(t, h.PatientJWT(), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("MissingEmail", func(t *testing.T) {
		noEmail, err := patienttoken.Issue(testSecret, "user-1", "", time.Hour, now)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+noEmail)
		_, _, err = serve(t, h.PatientJWT(), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})
}

func TestReviewerOrPatient(t *testing.T) {
	h := patientHandler()
	reviewerCalled := false
	reviewer := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reviewerCalled = true
			return next(c)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("id", "token")
	_, _, err := serve(t, h.ReviewerOrPatient(reviewer), req)
	require.NoError(t, err)
	assert.True(t, reviewerCalled)

	reviewerCalled = false
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, err = serve(t, h.ReviewerOrPatient(reviewer), req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.False(t, reviewerCalled)
}

func TestStamp(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, c, err := serve(t, Stamp(func() time.Time { return fixed }), req)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(ReceivedAt(c)))
	assert.Equal(t, time.UTC, ReceivedAt(c).Location())
}

func TestReceivedAtWithoutStamp(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.WithinDuration(t, time.Now(), ReceivedAt(c), time.Minute)
}
