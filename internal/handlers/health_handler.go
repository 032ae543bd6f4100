package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dependency is a backing service checked by /ready.
type Dependency struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

type HealthHandler struct {
	service string
	deps    []Dependency
}

func NewHealthHandler(service string, deps ...Dependency) *HealthHandler {
	return &HealthHandler{service: service, deps: deps}
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
	})
}

// Ready fails only when a required dependency is down. Optional ones are
// reported as degraded.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.deps))
	for _, dep := range h.deps {
		if dep.Ping == nil {
			checks[dep.Name] = "disabled"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			checks[dep.Name] = err.Error()
			if dep.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[dep.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}
