// Package httpapi exposes the tool dispatcher over REST.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/michaelquigley/df/dl"

	"loreweave/internal/tools"
)

type Dispatcher interface {
	Catalog() []tools.Tool
	Call(ctx context.Context, name string, args map[string]any) (*tools.Result, error)
}

type Handler struct {
	dispatcher Dispatcher
	started    time.Time
}

type rpcRequest struct {
	Name      string         `json:"name" binding:"required"`
	Arguments map[string]any `json:"arguments"`
}

func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d, started: time.Now()}
}

// Router builds a gin engine with recovery and every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog)
	router.GET("/health", h.health)
	h.RegisterRoutes(router.Group("/api"))
	return router
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tools", h.listTools)       // GET /api/tools
	rg.POST("/tools/:name", h.callTool) // POST /api/tools/:name
	rg.POST("/rpc", h.rpc)              // POST /api/rpc
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) listTools(c *gin.Context) {
	catalog := h.dispatcher.Catalog()
	c.JSON(http.StatusOK, gin.H{"tools": catalog, "total": len(catalog)})
}

func (h *Handler) callTool(c *gin.Context) {
	args := map[string]any{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
			h.fail(c, &tools.Error{Code: tools.CodeInvalidParams, Message: "request body must be a JSON object"})
			return
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	h.dispatch(c, c.Param("name"), args)
}

func (h *Handler) rpc(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, &tools.Error{Code: tools.CodeInvalidParams, Message: "request must be {\"name\": ..., \"arguments\": {...}}"})
		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}
	h.dispatch(c, req.Name, req.Arguments)
}

func (h *Handler) dispatch(c *gin.Context, name string, args map[string]any) {
	result, err := h.dispatcher.Call(c.Request.Context(), name, args)
	if err != nil {
		var toolErr *tools.Error
		if !errors.As(err, &toolErr) {
			toolErr = &tools.Error{Code: tools.CodeInternal, Message: err.Error(), Tool: name}
		}
		h.fail(c, toolErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) fail(c *gin.Context, err *tools.Error) {
	c.JSON(statusFor(err.Code), gin.H{"error": err})
}

func statusFor(code int) int {
	switch code {
	case tools.CodeInvalidParams:
		return http.StatusBadRequest
	case tools.CodeMethodNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	dl.ChannelLog("http").
		With("method", c.Request.Method).
		With("path", c.FullPath()).
		With("status", c.Writer.Status()).
		With("duration", time.Since(start)).
		Debug("http request")
}
