package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"galleria/internal/utils"
)

// Instrument records request count, duration and response size per route template.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		utils.InFlightRequests.Inc()
		defer utils.InFlightRequests.Dec()

		// Create a response writer that captures the status code and response size
		lrw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		if lrw.statusCode == 0 {
			lrw.statusCode = http.StatusOK
		}
		statusCode := strconv.Itoa(lrw.statusCode)
		path := routePath(r)

		utils.HTTPRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		utils.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
		utils.HTTPResponseSizeBytes.WithLabelValues(r.Method, path, statusCode).Observe(float64(lrw.responseSize))
	})
}

// routePath uses the matched route template so ids do not explode label cardinality.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// loggingResponseWriter is a wrapper around http.ResponseWriter that captures the status code and response size.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(data []byte) (int, error) {
	if lrw.statusCode == 0 {
		lrw.statusCode = http.StatusOK // Default status code if WriteHeader is not called
	}
	n, err := lrw.ResponseWriter.Write(data)
	lrw.responseSize += n
	return n, err
}
