package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/Harshitk-cp/opsconsole/internal/config"
)

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := NewHTTPServer(config.HTTPConfig{Address: ":0"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), logger)
	s.Use(tag("outer"))
	s.Use(tag("inner"))

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := NewHTTPServer(config.HTTPConfig{}, http.NotFoundHandler(), nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}
