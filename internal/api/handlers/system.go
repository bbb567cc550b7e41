package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/services"
)

// EventStats reports delivery counters for the detection event bus
type EventStats interface {
	Stats() (sent, dropped, failed int64)
}

// ClientCounter reports how many push clients are attached
type ClientCounter interface {
	Count() int
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	container *services.ServiceContainer
	events    EventStats
	clients   ClientCounter
}

// NewSystemHandler creates a new system handler. events and clients may be nil.
func NewSystemHandler(container *services.ServiceContainer, events EventStats, clients ClientCounter) *SystemHandler {
	return &SystemHandler{
		container: container,
		events:    events,
		clients:   clients,
	}
}

// @Summary Get system stats
// @Description Runtime statistics, capture loop status and event delivery counters
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	engine := h.container.Engine()
	stats := gin.H{
		"worker_id":      h.container.Config.WorkerID,
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"memory_mb":      m.Alloc / 1024 / 1024,
		"cpu_cores":      runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
		"capture":        h.container.CaptureStatus(),
		"engine": gin.H{
			"kind":   engine.Kind(),
			"model":  engine.CurrentModel(),
			"loaded": engine.IsLoaded(),
		},
	}
	if h.events != nil {
		sent, dropped, failed := h.events.Stats()
		stats["events"] = gin.H{"sent": sent, "dropped": dropped, "failed": failed}
	}
	if h.clients != nil {
		stats["websocket_clients"] = h.clients.Count()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().Unix(),
	})
}
