package middleware

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

// RequestIDHeader is read from and echoed on every request
const RequestIDHeader = "X-Request-ID"

// ResponseWriter is a wrapper for http.ResponseWriter that captures status code and size
type ResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

// NewResponseWriter creates a new ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures status code
func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the bytes written
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Hijack lets WebSocket upgrades through the wrapper
func (rw *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Status returns the HTTP status code
func (rw *ResponseWriter) Status() int {
	return rw.statusCode
}

// BytesWritten returns the size of the response body
func (rw *ResponseWriter) BytesWritten() int {
	return rw.bytesWritten
}

// RequestID assigns a request id and a request scoped logger to every request
func RequestID(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = shortuuid.New()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ToContext(ctx, logger.WithField("request_id", requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger logs every request with the request scoped logger
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := NewResponseWriter(w)
		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"client_ip": extractClientIP(r),
		}).Info("HTTP request")
	})
}

// Recovery recovers from panics and answers with an internal error
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.FromContext(r.Context()).WithFields(logrus.Fields{
					"panic": err,
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic")

				writeError(w, model.ErrInternalServer)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing
func CORS(allowOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error as JSON
func writeError(w http.ResponseWriter, apiErr model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(apiErr)
}

// extractClientIP extracts client IP from request
func extractClientIP(r *http.Request) string {
	// X-Forwarded-For might contain multiple IPs, use the leftmost (client)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	return remoteIP(r)
}

// remoteIP returns the host of the connection peer
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
