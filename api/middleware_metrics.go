package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader echoes the generated request id back to the caller
const RequestIDHeader = "X-Request-Id"

// slowRequest is the duration above which a request is logged as a warning
const slowRequest = time.Second

// MetricsMiddleware assigns a request id, tracks timing and store operations,
// and writes the access log line
func MetricsMiddleware(mc *MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			requestID := uuid.New().String()
			w.Header().Set(RequestIDHeader, requestID)

			trace := &RequestTrace{
				RequestID: requestID,
				Method:    r.Method,
				Path:      r.URL.Path,
				StartTime: startTime,
				StoreOps:  make([]StoreOpTrace, 0),
			}
			ctx := WithRequestTrace(WithRequestID(r.Context(), requestID), trace)

			wrappedWriter := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

			trace.TotalDuration = time.Since(startTime)
			trace.Status = wrappedWriter.statusCode
			if mc != nil {
				mc.RecordTrace(*trace)
			}

			fields := []interface{}{
				"requestId", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrappedWriter.statusCode,
				"duration", trace.TotalDuration,
				"storeOps", len(trace.StoreOps),
			}
			if trace.TotalDuration > slowRequest {
				zap.S().Warnw("Slow request detected", fields...)
				return
			}
			zap.S().Infow("request", fields...)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
