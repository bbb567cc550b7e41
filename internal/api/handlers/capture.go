package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/services"
)

type CaptureHandler struct {
	container *services.ServiceContainer
}

func NewCaptureHandler(container *services.ServiceContainer) *CaptureHandler {
	return &CaptureHandler{container: container}
}

// @Summary Start capture
// @Description Start the capture loop. Starting a running loop is a no-op.
// @Tags capture
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /start_capture [post]
func (h *CaptureHandler) StartCapture(c *gin.Context) {
	started := h.container.StartCapture()
	h.container.Logs.Info("Capture started via API", "start_capture_endpoint")
	logging.Info(c).Bool("started", started).Msg("Capture start requested")
	c.JSON(http.StatusOK, StatusResponse{Status: "Capture started"})
}

// @Summary Stop capture
// @Description Stop the capture loop and wait for the worker to exit
// @Tags capture
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /stop_capture [post]
func (h *CaptureHandler) StopCapture(c *gin.Context) {
	stopped := h.container.StopCapture()
	h.container.Logs.Info("Capture stopped via API", "stop_capture_endpoint")
	logging.Info(c).Bool("stopped", stopped).Msg("Capture stop requested")
	c.JSON(http.StatusOK, StatusResponse{Status: "Capture stopped"})
}

// @Summary Capture status
// @Description Lifecycle state and counters of the capture loop
// @Tags capture
// @Produce json
// @Success 200 {object} models.CaptureStatus
// @Router /capture/status [get]
func (h *CaptureHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.CaptureStatus())
}
