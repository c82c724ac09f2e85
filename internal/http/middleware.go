package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/room-booking/internal/application"
)

var (
	errInvalidToken    = errors.New("invalid bearer token")
	errTokenNoSubject  = errors.New("token has no subject")
	errTokenNoExpiry   = errors.New("token has no expiry")
	errMissingBearer   = errors.New("認証トークンを指定してください")
	errRejectedBearer  = errors.New("認証トークンが無効です。再度ログインしてください。")
	allowedTokenMethod = []string{jwt.SigningMethodHS256.Alg()}
)

// Claims is the JWT payload accepted by the API.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier returns a verifier for tokens signed with secret.
func NewTokenVerifier(secret string, now func() time.Time) *TokenVerifier {
	if now == nil {
		now = time.Now
	}
	return &TokenVerifier{secret: []byte(secret), now: now}
}

// Verify parses token and returns the principal it names. Tokens must carry
// sub and exp claims.
func (v *TokenVerifier) Verify(token string) (application.Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods(allowedTokenMethod), jwt.WithTimeFunc(v.now))
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !parsed.Valid {
		return application.Principal{}, errInvalidToken
	}
	if claims.ExpiresAt == nil {
		return application.Principal{}, errTokenNoExpiry
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return application.Principal{}, errTokenNoSubject
	}
	return application.Principal{UserID: subject, Roles: claims.Roles}, nil
}

// IssueToken signs a token for principal valid for ttl from now.
func IssueToken(secret string, principal application.Principal, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Roles: principal.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RequireToken rejects requests without a valid bearer token and stores the
// token's principal in the request context.
func RequireToken(verifier *TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingBearer)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "bearer token rejected", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: errRejectedBearer.Error()})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", principal.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequestLogger attaches a request-scoped logger tagged with chi's request
// ID and logs the start and end of each request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// CORS allows browser clients from origins. An empty list disables CORS.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return nil
	}
	options := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
	if !containsWildcard(origins) {
		options.AllowCredentials = true
	}
	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
