package handlers

import (
	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/services/broadcast"
	"vision-worker-go/internal/services/publisher/mjpeg"
)

type StreamHandler struct {
	mjpeg *mjpeg.Publisher
	hub   *broadcast.Hub
}

func NewStreamHandler(publisher *mjpeg.Publisher, hub *broadcast.Hub) *StreamHandler {
	return &StreamHandler{mjpeg: publisher, hub: hub}
}

// @Summary MJPEG stream
// @Description multipart/x-mixed-replace stream of the latest annotated frame
// @Tags stream
// @Produce multipart/x-mixed-replace
// @Success 200 {file} image/jpeg
// @Router /stream [get]
func (h *StreamHandler) StreamMJPEG(c *gin.Context) {
	logging.Debug(c).Msg("MJPEG client connected")
	h.mjpeg.StreamMJPEGHTTP(c.Writer, c.Request)
	logging.Debug(c).Msg("MJPEG client disconnected")
}

// @Summary Detection websocket
// @Description Pushes one JSON event per capture iteration
// @Tags stream
// @Success 101 {object} models.DetectionEvent
// @Router /ws/detections [get]
func (h *StreamHandler) Detections(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request); err != nil {
		logging.Warn(c).Err(err).Msg("Websocket upgrade failed")
	}
}
