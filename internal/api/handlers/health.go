package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// HealthDependencies is what the health check inspects
type HealthDependencies interface {
	Versions() []string
	CachePing(ctx context.Context) (enabled bool, err error)
}

type HealthHandler struct {
	deps    HealthDependencies
	version string
}

// MemoryStatus is host memory as reported by gopsutil
type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Datasets  []string          `json:"datasets"`
	Memory    *MemoryStatus     `json:"memory,omitempty"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

func NewHealthHandler(deps HealthDependencies, version string) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		version: version,
	}
}

// HealthCheck reports dataset and redis status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	overallStatus := "healthy"

	versions := h.deps.Versions()
	if len(versions) == 0 {
		services["datasets"] = "unhealthy: none loaded"
		overallStatus = "unhealthy"
	} else {
		services["datasets"] = "healthy"
	}

	// Redis is optional; a failing memo only degrades latency
	enabled, err := h.deps.CachePing(c.Request.Context())
	switch {
	case !enabled:
		services["redis"] = "disabled"
	case err != nil:
		services["redis"] = "unhealthy: " + err.Error()
		if overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	default:
		services["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  services,
		Datasets:  versions,
		Memory:    memoryStatus(),
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// LivenessCheck for container restarts
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func memoryStatus() *MemoryStatus {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil
	}
	return &MemoryStatus{
		TotalMB:     vm.Total / 1024 / 1024,
		UsedMB:      vm.Used / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}
}
