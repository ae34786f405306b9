// Package patienttoken signs and verifies the HS256 tokens the login service hands to patients.
package patienttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oralvis/oralvis-api/internal/validator"
)

// Identity asserted by the login service
type Claims struct {
	Email string `json:"email" validate:"required,email"`
	jwt.RegisteredClaims
}

// Signs a patient token the way the login service does
func Issue(secret []byte, subject string, email string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Only HS256 is accepted and the token must carry an expiry
func Parse(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	valid := validator.Create()
	if err := valid.Validate(claims); err != nil {
		return nil, err
	}
	return claims, nil
}
