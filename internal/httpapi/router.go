// Package httpapi serves the gateway's tools as a small JSON API on gin.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"fsgate/internal/dispatch"
	"fsgate/internal/logging"
	"fsgate/internal/monitoring"
	"fsgate/internal/toolerr"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invoker runs tool calls. *gateway.Gateway implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (*dispatch.Result, error)
	Tools() []dispatch.Tool
}

// CallRequest is the body of POST /v1/tools/:name.
type CallRequest struct {
	Arguments map[string]any `json:"arguments"`
}

// ErrorBody is the body of every failed call.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind and carries its message.
type ErrorDetail struct {
	Kind    toolerr.Kind `json:"kind"`
	Message string       `json:"message"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	invoker Invoker
}

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	token string
}

// WithToken requires "Authorization: Bearer <token>" on every /v1 route.
// An empty token leaves the API open.
func WithToken(token string) RouterOption {
	return func(o *routerOptions) { o.token = token }
}

// NewRouter builds the gin engine with logging, recovery and metrics
// middleware. metrics may be nil, which disables /metrics.
func NewRouter(invoker Invoker, metrics *monitoring.Metrics, logger *logging.AppLogger, opts ...RouterOption) *gin.Engine {
	if logger == nil {
		logger = logging.GetDefault()
	}
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	h := &Handlers{invoker: invoker}
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	if o.token != "" {
		v1.Use(TokenAuth(o.token))
	}
	v1.GET("/tools", h.ListTools)
	v1.POST("/tools/:name", h.CallTool)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	}
	return router
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListTools returns the tool table.
func (h *Handlers) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.invoker.Tools()})
}

// CallTool invokes the tool named in the path with the body's arguments. An
// empty body is a call without arguments.
func (h *Handlers) CallTool(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, toolerr.Newf(toolerr.InvalidArgument, c.Param("name"), "", "malformed request body: %v", err))
		return
	}

	res, err := h.invoker.Invoke(c.Request.Context(), c.Param("name"), req.Arguments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeError(c *gin.Context, err error) {
	kind := toolerr.KindOf(err)
	c.JSON(kind.HTTPStatus(), ErrorBody{Error: ErrorDetail{Kind: kind, Message: err.Error()}})
}

// TokenAuth rejects requests that do not carry the bearer token.
func TokenAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="fsgate"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{
				Kind:    toolerr.AccessDenied,
				Message: "missing or invalid bearer token",
			}})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request through the application logger.
func RequestLogger(logger *logging.AppLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("HTTP request", keyvals...)
		} else {
			logger.Debug("HTTP request", keyvals...)
		}
	}
}
