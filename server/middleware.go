package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/employeesvc/auth"
	"github.com/jonwraymond/employeesvc/observe"
)

// requestTelemetry logs each request and records request metrics.
func requestTelemetry(logger observe.Logger, metrics observe.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		ctx := c.Request.Context()
		log := requestLogger(c, logger)

		metrics.RecordRequest(ctx, c.Request.Method, route, status, duration)

		fields := []observe.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "route", Value: route},
			{Key: "status", Value: status},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if p := auth.PrincipalFromContext(ctx); p != "" {
			fields = append(fields, observe.Field{Key: "principal", Value: p})
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(ctx, "request served", fields...)
		case status >= http.StatusBadRequest:
			log.Warn(ctx, "request served", fields...)
		default:
			log.Debug(ctx, "request served", fields...)
		}
	}
}

// requireAuth rejects requests the authenticator does not accept and stores
// the identity in the request context.
func requireAuth(a auth.Authenticator, logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		req := auth.RequestFromHTTP(c.Request)

		if !a.Supports(ctx, req) {
			c.Header("WWW-Authenticate", `Bearer realm="employeesvc"`)
			abortError(c, http.StatusUnauthorized, "credentials required")
			return
		}

		result, err := a.Authenticate(ctx, req)
		if err != nil {
			requestLogger(c, logger).Error(ctx, "authentication error", observe.Field{Key: "error", Value: err.Error()})
			abortError(c, http.StatusInternalServerError, "internal error")
			return
		}
		if !result.Authenticated {
			requestLogger(c, logger).Warn(ctx, "authentication rejected",
				observe.Field{Key: "method", Value: result.Method},
				observe.Field{Key: "reason", Value: result.Error.Error()},
			)
			abortError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, result.Identity))
		c.Next()
	}
}

// recovery turns panics into 500 responses and logs them.
func recovery(logger observe.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		requestLogger(c, logger).Error(c.Request.Context(), "panic recovered",
			observe.Field{Key: "route", Value: c.FullPath()},
			observe.Field{Key: "panic", Value: rec},
		)
		abortError(c, http.StatusInternalServerError, "internal error")
	})
}
