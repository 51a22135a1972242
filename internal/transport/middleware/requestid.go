package middleware

import (
	"net/http"

	"github.com/frahmantamala/taktplan/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const TraceHeader = "X-Trace-ID"

// TraceID reuses an inbound X-Trace-ID or mints one, echoes it back and
// attaches it to the request logger together with chi's request id and the
// active span, if any.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logger.With(ctx, "request_id", reqID)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			ctx = logger.With(ctx, "otel_trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
		}

		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
