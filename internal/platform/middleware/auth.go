package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect on a query API token
type JWTClaims struct {
	Subject string
	Scope   string
}

type contextKeySubject struct{}

// ContextKeySubject is exported for use in handlers
var ContextKeySubject = contextKeySubject{}

// GetSubject retrieves the authenticated subject from the context
func GetSubject(ctx context.Context) string {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	if !ok {
		return ""
	}
	return sub
}

type claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// HS256 signs and validates query API tokens with a shared secret.
type HS256 struct {
	signingKey []byte
	issuer     string
}

func NewHS256(signingKey, issuer string) *HS256 {
	return &HS256{signingKey: []byte(signingKey), issuer: issuer}
}

// Issue mints a token for subject. Used by operators and tests.
func (s *HS256) Issue(subject, scope string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *HS256) ValidateToken(tokenString string) (*JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(_ *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &JWTClaims{Subject: c.Subject, Scope: c.Scope}, nil
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"unauthorized","error_description":"%s"}`, desc))
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := chimw.GetReqID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			c, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeySubject, c.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
