package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/employeesvc/auth"
	"github.com/jonwraymond/employeesvc/employee"
	"github.com/jonwraymond/employeesvc/health"
	"github.com/jonwraymond/employeesvc/observe"
)

// Options wires the router's dependencies. Store, Auth and Health are
// required; the rest default to no-ops.
type Options struct {
	ServiceName    string
	Store          employee.Store
	Auth           auth.Authenticator
	Health         *health.Aggregator
	Logger         observe.Logger
	Metrics        observe.Metrics
	TracerProvider trace.TracerProvider
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine. The gin mode is process-wide and left to
// the caller.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics, _ = observe.NewMetrics(nil)
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "employeesvc"
	}

	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	otelOpts := []otelgin.Option{}
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(opts.TracerProvider))
	}
	r.Use(
		correlationID(opts.Logger),
		recovery(opts.Logger),
		otelgin.Middleware(opts.ServiceName, otelOpts...),
		requestTelemetry(opts.Logger, opts.Metrics),
	)

	h := &handlers{store: opts.Store, logger: opts.Logger, serviceName: opts.ServiceName}

	r.GET("/", h.root)
	r.GET("/hello", h.hello)
	r.GET("/health", gin.WrapF(health.StatusHandler(opts.Health)))
	r.GET("/healthz", gin.WrapF(health.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(health.ReadinessHandler(opts.Health)))
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	api := r.Group("/api", requireAuth(opts.Auth, opts.Logger))
	api.GET("/employees", h.listEmployees)
	api.GET("/employees/:id", h.getEmployee)
	api.POST("/employees", h.createEmployee)

	return r
}

type handlers struct {
	store       employee.Store
	logger      observe.Logger
	serviceName string
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the employee service API",
		"status":  "running",
	})
}

func (h *handlers) hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello from %s!", h.serviceName)
}

func (h *handlers) listEmployees(c *gin.Context) {
	page := employee.Page{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	list, err := h.store.List(c.Request.Context(), page)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if list == nil {
		list = []employee.Employee{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) getEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortError(c, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	e, err := h.store.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, employee.ErrNotFound):
		abortError(c, http.StatusNotFound, "employee not found")
	case err != nil:
		h.internalError(c, err)
	default:
		c.JSON(http.StatusOK, e)
	}
}

func (h *handlers) createEmployee(c *gin.Context) {
	var e employee.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		abortError(c, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	err := h.store.Create(c.Request.Context(), &e)
	switch {
	case errors.Is(err, employee.ErrInvalid):
		abortError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, employee.ErrDuplicateEmail):
		abortError(c, http.StatusConflict, "email already registered")
	case err != nil:
		h.internalError(c, err)
	default:
		requestLogger(c, h.logger).Info(c.Request.Context(), "employee created",
			observe.Field{Key: "employee_id", Value: e.ID},
			observe.Field{Key: "principal", Value: auth.PrincipalFromContext(c.Request.Context())},
		)
		c.Header("Location", "/api/employees/"+strconv.FormatInt(e.ID, 10))
		c.JSON(http.StatusCreated, e)
	}
}

func (h *handlers) internalError(c *gin.Context, err error) {
	requestLogger(c, h.logger).Error(c.Request.Context(), "request failed",
		observe.Field{Key: "route", Value: c.FullPath()},
		observe.Field{Key: "error", Value: err.Error()},
	)
	abortError(c, http.StatusInternalServerError, "internal error")
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
