package handlers

import (
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/config"
	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/services"
)

type WorkerHandler struct {
	cfg       *config.Config
	container *services.ServiceContainer
	signal    func() error
}

func NewWorkerHandler(cfg *config.Config, container *services.ServiceContainer) *WorkerHandler {
	return &WorkerHandler{
		cfg:       cfg,
		container: container,
		signal: func() error {
			process, err := os.FindProcess(os.Getpid())
			if err != nil {
				return err
			}
			return process.Signal(syscall.SIGTERM)
		},
	}
}

type WorkerInfoResponse struct {
	WorkerID       string       `json:"worker_id" example:"worker-1"`
	Status         string       `json:"status" example:"running"`
	Version        string       `json:"version" example:"1.0.0"`
	Environment    string       `json:"environment"`
	Port           int          `json:"port"`
	StartTime      time.Time    `json:"start_time"`
	SimulationMode bool         `json:"simulation_mode"`
	Capabilities   []string     `json:"capabilities"`
	Config         WorkerConfig `json:"config"`
}

type WorkerConfig struct {
	Engine          string        `json:"engine"`
	DefaultModel    string        `json:"default_model"`
	Threshold       float64       `json:"threshold"`
	CaptureInterval time.Duration `json:"capture_interval"`
	ImageWidth      int           `json:"image_width"`
	ImageHeight     int           `json:"image_height"`
	EventsBackend   string        `json:"events_backend"`
}

type ShutdownResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

var startTime = time.Now()

// @Summary Worker information
// @Description Basic worker information, capabilities and effective configuration
// @Tags worker
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *WorkerHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:       h.cfg.WorkerID,
		Status:         "running",
		Version:        h.cfg.Version,
		Environment:    h.cfg.Environment,
		Port:           h.cfg.Port,
		StartTime:      startTime,
		SimulationMode: h.cfg.SimulationMode,
		Capabilities:   []string{"latest_frame_capture", "object_detection", "mjpeg_streaming", "websocket_events"},
		Config: WorkerConfig{
			Engine:          string(h.container.Engine().Kind()),
			DefaultModel:    h.cfg.DefaultModel,
			Threshold:       h.cfg.DetectionThreshold,
			CaptureInterval: h.cfg.CaptureInterval,
			ImageWidth:      h.cfg.ImageWidth,
			ImageHeight:     h.cfg.ImageHeight,
			EventsBackend:   h.cfg.EventsBackend,
		},
	})
}

// Shutdown godoc
// @Summary Shutdown worker
// @Description Gracefully shut the worker down
// @Tags worker
// @Produce json
// @Success 200 {object} ShutdownResponse
// @Router /worker/shutdown [post]
func (h *WorkerHandler) Shutdown(c *gin.Context) {
	c.JSON(http.StatusOK, ShutdownResponse{
		Status:    "shutting_down",
		Message:   "Worker shutdown initiated",
		Timestamp: time.Now(),
	})
	h.container.Logs.Decision("Shutdown requested via API", "shutdown_endpoint")

	go func() {
		// let the response flush first
		time.Sleep(100 * time.Millisecond)
		if err := h.signal(); err != nil {
			logging.Error(nil).Err(err).Msg("Failed to signal shutdown")
		}
	}()
}
