// Package auth issues and verifies the bearer tokens that identify a
// user to the relay.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronicler-app/chronicler/internal/domain"
)

type contextKey struct{}

var userIDKey contextKey

// Config defines how tokens are signed and verified.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

type principalClaims struct {
	jwt.RegisteredClaims
}

// SignToken mints an HS256 token for a user id.
func SignToken(cfg Config, userID int64) (string, error) {
	if len(cfg.Secret) == 0 {
		return "", errors.New("token signer is not configured")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	claims := principalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now().UTC()),
			ExpiresAt: jwt.NewNumericDate(now().UTC().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a token and returns the user id it names.
func VerifyToken(cfg Config, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: token is required", domain.ErrUnauthorized)
	}
	if len(cfg.Secret) == 0 {
		return 0, errors.New("token verifier is not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var parsed principalClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnauthorized, tokenFailure(err))
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: token subject is not a user id", domain.ErrUnauthorized)
	}
	return userID, nil
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token alg is invalid"
	}
	return "token is invalid"
}

// Middleware authenticates every request. It reads the Authorization
// bearer header, falling back to a `token` query parameter because the
// browser websocket API cannot set headers on the upgrade request.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				raw = r.URL.Query().Get("token")
			}

			userID, err := VerifyToken(cfg, raw)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// WithUserID stores the authenticated user id on a context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id from a request context.
func UserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
