package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonwraymond/employeesvc/observe"
)

func TestCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(correlationID(observe.NewLoggerWithWriter("info", &buf)))
	r.GET("/", func(c *gin.Context) {
		requestLogger(c, observe.NopLogger()).Info(c.Request.Context(), "handled")
		c.Status(http.StatusNoContent)
	})

	t.Run("kept from request", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get(CorrelationIDHeader); got != "abc-123" {
			t.Errorf("%s = %q, want abc-123", CorrelationIDHeader, got)
		}
		if !strings.Contains(buf.String(), `"correlation_id":"abc-123"`) {
			t.Errorf("log line missing correlation id: %s", buf.String())
		}
	})

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, err := uuid.Parse(rec.Header().Get(CorrelationIDHeader)); err != nil {
			t.Errorf("generated id is not a UUID: %v", err)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, strings.Repeat("x", maxCorrelationIDLen+1))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if _, err := uuid.Parse(rec.Header().Get(CorrelationIDHeader)); err != nil {
			t.Errorf("oversized id kept: %q", rec.Header().Get(CorrelationIDHeader))
		}
	})
}

func TestRequestLogger_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := observe.NopLogger()
	if got := requestLogger(c, fallback); got != fallback {
		t.Errorf("requestLogger() = %v, want fallback", got)
	}
}
