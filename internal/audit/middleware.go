package audit

import (
	"net/http"
	"time"

	"badgeforge/pkg/platform/privacy"
	"badgeforge/pkg/requestcontext"
)

// Middleware records one access log entry per request. Mount it inside the
// API group so health checks and metrics scrapes stay out of the log.
func Middleware(recorder *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			ctx := r.Context()
			recorder.Record(ctx, Entry{
				Time:       requestcontext.Now(ctx),
				User:       requestcontext.Subject(ctx),
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     wrapped.statusCode,
				DurationMs: time.Since(start).Milliseconds(),
				RequestID:  requestcontext.RequestID(ctx),
				Client:     DescribeClient(requestcontext.UserAgent(ctx)),
				RemoteAddr: privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			})
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}
