package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/qerralabs/launchpad/internal/auth"
	apperrors "github.com/qerralabs/launchpad/internal/errors"
)

type contextKey string

const (
	callerKey    contextKey = "caller"
	requestIDKey contextKey = "request_id"
)

// identityHeader carries the caller identity when bearer auth is disabled.
// Only for local development and tests.
const identityHeader = "X-Caller-Identity"

// CallerFromContext returns the authenticated caller identity, empty when
// the request was anonymous.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}

// RequestIDFromContext returns the request id assigned by the middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID assigns each request an id, honoring one supplied by a
// trusted proxy.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTracing wraps each request in an otel span.
func withTracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("launchpad/httpapi")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		log.Printf("%s %s status=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, recorder.status,
			time.Since(start).Round(time.Millisecond),
			RequestIDFromContext(r.Context()))
	})
}

// withIdentity resolves the caller identity. With a verifier configured the
// Authorization bearer token is required; without one the identity header is
// trusted as-is.
func withIdentity(verifier *auth.VerifierConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var caller string
		if verifier != nil {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, apperrors.New(apperrors.CodeUnauthorized, "bearer token is required"))
				return
			}
			claims, err := auth.VerifyBearer(token, *verifier)
			if err != nil {
				writeError(w, err)
				return
			}
			caller = claims.Subject
		} else {
			caller = strings.TrimSpace(r.Header.Get(identityHeader))
		}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
