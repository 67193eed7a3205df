// Package auth guards the service-level endpoints (§6's /metrics,
// /diagnostics) with a single configured bearer token, rather than the
// teacher's full user-login JWT system (token pairs, refresh, roles,
// permissions, company scoping — none of which this spec has a concept
// of). Adapted from internal/auth/jwt.go's JWTManager: the sign/verify
// machinery survives, reduced to one claim set for one subject.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ServiceClaims is the minimal claim set for a service-level bearer
// token — no user identity, no roles, just "this holder is allowed to
// call token-protected endpoints."
type ServiceClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies service-level bearer tokens using a
// single pre-shared secret (API_BEARER_TOKEN).
type TokenManager struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration
	tracer    trace.Tracer
}

// NewTokenManager builds a manager around the configured secret. An
// empty secret is valid — it just means IssueToken/VerifyToken will
// always fail, which is the expected shape when ALLOW_UNAUTHENTICATED_API
// is true and no token is configured.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secret),
		issuer:    issuer,
		expiry:    24 * time.Hour,
		tracer:    otel.Tracer("auth.token_manager"),
	}
}

// IssueToken signs a fresh service token — used by ops tooling to mint
// a credential for a caller of /metrics or /diagnostics, not exposed as
// an HTTP endpoint (there is no login flow in this spec).
func (m *TokenManager) IssueToken(ctx context.Context, subject string) (string, error) {
	_, span := m.tracer.Start(ctx, "token_manager.issue_token")
	defer span.End()

	if len(m.secretKey) == 0 {
		return "", fmt.Errorf("auth: no API bearer secret configured")
	}

	now := time.Now()
	claims := &ServiceClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        generateTokenID(),
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	span.SetAttributes(attribute.String("token.subject", subject))
	return signed, nil
}

// VerifyToken validates a bearer token string against the configured
// secret and issuer.
func (m *TokenManager) VerifyToken(ctx context.Context, tokenString string) (*ServiceClaims, error) {
	_, span := m.tracer.Start(ctx, "token_manager.verify_token")
	defer span.End()

	if len(m.secretKey) == 0 {
		return nil, fmt.Errorf("auth: no API bearer secret configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if claims.Issuer != m.issuer {
		return nil, fmt.Errorf("auth: invalid token issuer")
	}

	span.SetAttributes(attribute.String("token.subject", claims.Subject))
	return claims, nil
}

func generateTokenID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
