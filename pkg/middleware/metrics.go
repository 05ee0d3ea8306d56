package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Harshitk-cp/opsconsole/internal/metrics"
)

// Metrics records every request on the collector, labelled by route template
func Metrics(collector metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			collector.HTTPRequest(r.Method, routePattern(r), rw.Status(), time.Since(start))
		})
	}
}

// routePattern returns the mux route template so paths with ids share a label
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
