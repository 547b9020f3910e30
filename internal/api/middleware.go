package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/auth"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// HeaderRequestID carries the request id in requests and responses.
const HeaderRequestID = "X-Request-Id"

type contextKey string

const (
	claimsKey    contextKey = "claims"
	loggerKey    contextKey = "logger"
	rejectionKey contextKey = "token-rejection"
)

// RequestID takes the request id from the client or generates one, echoes it
// in the response and stores a logger carrying it in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, requestID)

		logger := slog.Default().With(slog.String("request_id", requestID))
		ctx := context.WithValue(r.Context(), loggerKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggerFrom returns the request-scoped logger, or the default logger outside
// a request.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware writes one access log line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if rec.status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		LoggerFrom(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}

// MaxBodyMiddleware limits request bodies to limit bytes.
func MaxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware reads an optional bearer token. Requests without a usable
// token continue anonymously, so public reads still succeed. When a token was
// sent but rejected, the reason is kept for gate and requireAuth to report.
func AuthMiddleware(signer *auth.Signer, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			reject := func(reason string) {
				LoggerFrom(r.Context()).Debug("bearer token rejected", "reason", reason)
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rejectionKey, reason)))
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				reject("invalid authorization header")
				return
			}

			claims, err := signer.Verify(tokenStr)
			if err != nil {
				reject("invalid token")
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if revoked {
				reject("token has been revoked")
				return
			}

			user, err := store.GetUser(r.Context(), db, claims.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if user == nil {
				reject("user no longer exists")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, loggerKey, LoggerFrom(ctx).With("user", claims.Username))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the verified token claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// ActorFrom returns the caller of the request.
func ActorFrom(ctx context.Context) policy.Actor {
	claims := GetClaims(ctx)
	if claims == nil {
		return policy.Actor{}
	}
	return policy.Actor{UserID: claims.UserID, Username: claims.Username}
}

// requireAuth rejects anonymous requests.
func requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFrom(r.Context()).Authenticated() {
			unauthenticated(w, r, apperr.AuthenticationRequired())
			return
		}
		next(w, r)
	})
}

// unauthenticated reports a 401, naming the rejected token when one was sent.
func unauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	if reason, ok := r.Context().Value(rejectionKey).(string); ok {
		jsonError(w, http.StatusUnauthorized, reason)
		return
	}
	writeError(w, r, err)
}

// gate applies the policy's authentication requirement for an action before
// the handler loads anything. Ownership is checked by the handler.
func gate(p *policy.Policy, resource policy.Resource, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := p.Gate(ActorFrom(r.Context()), resource, action); err != nil {
				unauthenticated(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
