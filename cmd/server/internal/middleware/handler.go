package middleware

import (
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

const name string = "github.com/oralvis/oralvis-api/server/middleware"

var tracer = otel.Tracer(name)

const (
	// Context key holding the authenticated *models.Reviewer
	ReviewerKey = "reviewer"
	// Context key holding the authenticated *patienttoken.Claims
	PatientKey = "patient"
)

type Handler struct {
	DB *gorm.DB
	// HMAC secret patient tokens are signed with
	JWTSecret  []byte
	CookieName string
}
