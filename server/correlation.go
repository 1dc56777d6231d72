package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonwraymond/employeesvc/observe"
)

const (
	// CorrelationIDHeader carries the request's correlation ID in both
	// directions. A client-supplied ID is kept; otherwise a UUID is issued.
	CorrelationIDHeader = "X-Correlation-ID"

	correlationIDKey = "correlation_id"
	loggerKey        = "logger"

	maxCorrelationIDLen = 128
)

// correlationID tags the request with an ID and stores a logger carrying it
// for the handlers and middleware that follow.
func correlationID(base observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if id == "" || len(id) > maxCorrelationIDLen {
			id = uuid.NewString()
		}
		c.Set(correlationIDKey, id)
		c.Set(loggerKey, base.With(observe.Field{Key: correlationIDKey, Value: id}))
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

// requestLogger returns the correlation-aware logger for c, or fallback when
// the correlation middleware did not run.
func requestLogger(c *gin.Context, fallback observe.Logger) observe.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(observe.Logger); ok {
			return logger
		}
	}
	return fallback
}
