package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"equipment-rental-backend/internal/cache"
	"equipment-rental-backend/internal/config"
	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/metrics"
	"equipment-rental-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	RequestIDHeader      = "X-Request-ID"
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// bodyRecorder also keeps a copy of the body for idempotent replay.
type bodyRecorder struct {
	statusRecorder
	body []byte
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequest(r.Context(), id)))
	})
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Panic recovered",
					"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "INTERNAL",
					Message: "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Metrics labels requests by route template so ids do not explode the
// label space.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routeTemplate(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Auth validates the bearer session token for tenant routes and injects the
// actor into the request context.
func Auth(tm security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.GetSecurityLevel(routeTemplate(r)) == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeError(w, r, domain.NewUnauthorized("authorization token is not provided"))
				return
			}

			claims, err := tm.ValidateToken(token)
			if err != nil {
				writeError(w, r, domain.NewUnauthorized(err.Error()))
				return
			}

			ctx := ContextWithActor(r.Context(), domain.Actor{TenantID: claims.TenantID, UserID: claims.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}

// inFlightTTL bounds how long a claimed key blocks duplicates when the
// process dies before completing it.
const inFlightTTL = time.Minute

// Idempotency replays the stored response of an earlier successful request
// that carried the same Idempotency-Key. Keys are scoped per tenant and
// route. The key is claimed before the handler runs, so a duplicate that
// arrives while the first request is still running gets 409. Store failures
// never block the request.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := logger.FromContext(ctx)
			actor, _ := ActorFromContext(ctx)
			scoped := fmt.Sprintf("%d:%s:%s:%s", actor.TenantID, r.Method, r.URL.Path, key)

			if replayStored(ctx, w, store, scoped, key) {
				return
			}

			claimed, err := store.Claim(ctx, scoped, inFlightTTL)
			if err != nil {
				log.Warn("Idempotency claim failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !claimed {
				if !replayStored(ctx, w, store, scoped, key) {
					writeInFlight(w)
				}
				return
			}

			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
					log.Warn("Failed to release idempotency key", "key", key, "error", err)
				}
			}()

			rec := &bodyRecorder{statusRecorder: statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			resp := &cache.StoredResponse{
				Status:      rec.statusCode,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body,
			}
			if err := store.Complete(context.WithoutCancel(ctx), scoped, resp, ttl); err != nil {
				log.Warn("Failed to store idempotent response", "key", key, "error", err)
				return
			}
			completed = true
		})
	}
}

// replayStored writes the completed response of scoped when there is one.
// An in-flight key writes 409.
func replayStored(ctx context.Context, w http.ResponseWriter, store cache.IdempotencyStore, scoped, key string) bool {
	log := logger.FromContext(ctx)
	stored, err := store.Get(ctx, scoped)
	switch {
	case err == nil:
		metrics.IdempotentReplays.Inc()
		log.Info("Replaying idempotent response", "key", key, "status", stored.Status)
		w.Header().Set("Content-Type", stored.ContentType)
		w.Header().Set(ReplayedHeader, "true")
		w.WriteHeader(stored.Status)
		w.Write(stored.Body)
		return true
	case errors.Is(err, cache.ErrInFlight):
		writeInFlight(w)
		return true
	case !errors.Is(err, cache.ErrNotFound):
		log.Warn("Idempotency lookup failed", "key", key, "error", err)
	}
	return false
}

func writeInFlight(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, errorResponse{
		Error:   "IDEMPOTENCY_KEY_IN_USE",
		Message: "a request with this Idempotency-Key is still being processed",
	})
}
