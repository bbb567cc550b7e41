package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services"
	"vision-worker-go/internal/services/detection"
)

// maxUploadBytes bounds one-shot image uploads
const maxUploadBytes = 32 << 20

var errUploadTooLarge = errors.New("upload too large")

type DetectionHandler struct {
	container *services.ServiceContainer
	quality   int
	maxUpload int64
}

func NewDetectionHandler(container *services.ServiceContainer) *DetectionHandler {
	return &DetectionHandler{
		container: container,
		quality:   container.Config.JPEGQuality,
		maxUpload: maxUploadBytes,
	}
}

type AnnotatedDetectResponse struct {
	Detections     []models.Detection `json:"detections"`
	AnnotatedImage string             `json:"annotated_image"`
	ImageFormat    string             `json:"image_format" example:"jpeg"`
}

type ModelResponse struct {
	CurrentModel    string   `json:"current_model" example:"yolo11n"`
	AvailableModels []string `json:"available_models"`
}

type ChangeModelRequest struct {
	ModelName string `json:"model_name" example:"yolo11n"`
}

type DetectionServiceResponse struct {
	CurrentService    string   `json:"current_service" example:"yolo"`
	CurrentModel      string   `json:"current_model" example:"yolo11n"`
	ModelLoaded       bool     `json:"model_loaded"`
	AvailableServices []string `json:"available_services"`
	AvailableModels   []string `json:"available_models"`
}

type SwitchServiceRequest struct {
	Service        string `json:"service" example:"yolo"`
	Model          string `json:"model" example:"yolo11n"`
	SimulationMode bool   `json:"simulation_mode"`
	Endpoint       string `json:"endpoint,omitempty"`
}

type SwitchServiceResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Model   string `json:"model"`
}

// @Summary Latest annotated frame
// @Description JPEG of the latest captured frame with the detections cached alongside it. A placeholder is returned before the first capture.
// @Tags detection
// @Produce image/jpeg
// @Success 200 {file} image/jpeg
// @Failure 500 {object} ErrorResponse
// @Router /frame [get]
func (h *DetectionHandler) GetFrame(c *gin.Context) {
	frame, detections, _, ok := h.container.Latest()
	if !ok {
		h.writeJPEG(c, h.placeholder())
		return
	}
	h.writeJPEG(c, helpers.DrawDetections(frame, detections))
}

// @Summary Latest raw frame
// @Description JPEG of the latest captured frame without annotations
// @Tags detection
// @Produce image/jpeg
// @Success 200 {file} image/jpeg
// @Failure 500 {object} ErrorResponse
// @Router /unprocessed_frame [get]
func (h *DetectionHandler) GetUnprocessedFrame(c *gin.Context) {
	frame := h.container.LatestFrame()
	if frame == nil {
		frame = h.placeholder()
	}
	h.writeJPEG(c, frame)
}

// @Summary Latest detections
// @Description Detections from the most recent capture iteration
// @Tags detection
// @Produce json
// @Success 200 {array} models.Detection
// @Router /detections [get]
func (h *DetectionHandler) GetDetections(c *gin.Context) {
	detections := h.container.LatestDetections()
	if len(detections) == 0 {
		c.JSON(http.StatusOK, []MessageResponse{{Message: NoCaptureMessage}})
		return
	}
	c.JSON(http.StatusOK, detections)
}

// @Summary Detect objects in an uploaded image
// @Description Run the active engine once on a JPEG or PNG upload. With annotate=true the annotated image is returned base64 encoded.
// @Tags detection
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image to run detection on"
// @Param annotate query bool false "Include the annotated image"
// @Param threshold query number false "Confidence threshold, defaults to the configured one"
// @Success 200 {array} models.Detection
// @Success 200 {object} AnnotatedDetectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /detect [post]
func (h *DetectionHandler) Detect(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No image part in request"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No selected file"})
		return
	}

	data, err := readUpload(file, h.maxUpload)
	if errors.Is(err, errUploadTooLarge) {
		logging.Warn(c).Int64("size", file.Size).Str("filename", file.Filename).Msg("Rejected oversized upload")
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("Image exceeds %d MiB upload limit", h.maxUpload>>20)})
		return
	}
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to read upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	frame, err := helpers.DecodeImage(data)
	if err != nil {
		logging.Warn(c).Err(err).Str("filename", file.Filename).Msg("Rejected upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not decode image"})
		return
	}

	threshold := 0.0
	if raw := c.Query("threshold"); raw != "" {
		if threshold, err = strconv.ParseFloat(raw, 64); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid threshold: %s", raw)})
			return
		}
	}

	ctx := c.Request.Context()
	detections, err := h.container.DetectOnce(ctx, frame, threshold)
	if err != nil {
		logging.Error(c).Err(err).Msg("One-shot detection failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if !strings.EqualFold(c.DefaultQuery("annotate", "false"), "true") {
		c.JSON(http.StatusOK, detections)
		return
	}

	buf, err := helpers.EncodeJPEG(helpers.DrawDetections(frame, detections), h.quality)
	if err != nil {
		// the detections are still useful without the picture
		logging.Warn(c).Err(err).Msg("Failed to encode annotated image")
		c.JSON(http.StatusOK, detections)
		return
	}
	c.JSON(http.StatusOK, AnnotatedDetectResponse{
		Detections:     detections,
		AnnotatedImage: base64.StdEncoding.EncodeToString(buf),
		ImageFormat:    "jpeg",
	})
}

// @Summary Current model
// @Description Active model and the models the engine can switch to
// @Tags model
// @Produce json
// @Success 200 {object} ModelResponse
// @Router /model [get]
func (h *DetectionHandler) GetModel(c *gin.Context) {
	engine := h.container.Engine()
	c.JSON(http.StatusOK, ModelResponse{
		CurrentModel:    engine.CurrentModel(),
		AvailableModels: engine.AvailableModels(),
	})
}

// @Summary Change model
// @Description Load another model into the active engine
// @Tags model
// @Accept json
// @Produce json
// @Param request body ChangeModelRequest true "Model to load"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /model [post]
func (h *DetectionHandler) ChangeModel(c *gin.Context) {
	var req ChangeModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.ModelName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing 'model_name' parameter"})
		return
	}

	err := h.container.ChangeModel(c.Request.Context(), req.ModelName)
	var loadErr *detection.ModelLoadError
	switch {
	case err == nil:
		logging.Info(c).Str("model", req.ModelName).Msg("Model changed")
		c.JSON(http.StatusOK, StatusResponse{Status: "Model changed to " + req.ModelName})
	case errors.Is(err, detection.ErrModelNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Model not found"})
	case errors.As(err, &loadErr):
		logging.Error(c).Err(err).Str("model", req.ModelName).Msg("Model load failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		logging.Error(c).Err(err).Str("model", req.ModelName).Msg("Model change failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// @Summary Current detection service
// @Description Active engine kind and the kinds that can be switched to
// @Tags model
// @Produce json
// @Success 200 {object} DetectionServiceResponse
// @Router /detection-service [get]
func (h *DetectionHandler) GetDetectionService(c *gin.Context) {
	engine := h.container.Engine()
	kinds := h.container.Factory.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	c.JSON(http.StatusOK, DetectionServiceResponse{
		CurrentService:    string(engine.Kind()),
		CurrentModel:      engine.CurrentModel(),
		ModelLoaded:       engine.IsLoaded(),
		AvailableServices: names,
		AvailableModels:   engine.AvailableModels(),
	})
}

// @Summary Switch detection service
// @Description Build an engine of another kind and install it for the next capture iteration
// @Tags model
// @Accept json
// @Produce json
// @Param request body SwitchServiceRequest true "Engine to switch to"
// @Success 200 {object} SwitchServiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /detection-service [post]
func (h *DetectionHandler) SwitchDetectionService(c *gin.Context) {
	var req SwitchServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Service) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing 'service' parameter. Use one of: " + h.kindList()})
		return
	}

	kind := detection.ParseKind(req.Service)
	engine, err := h.container.SwitchEngine(c.Request.Context(), kind, detection.Params{
		Model:      req.Model,
		Simulation: req.SimulationMode,
		Endpoint:   req.Endpoint,
	})
	if errors.Is(err, detection.ErrUnknownKind) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Unknown service %q. Use one of: %s", req.Service, h.kindList())})
		return
	}
	if err != nil {
		logging.Error(c).Err(err).Str("service", string(kind)).Msg("Detection service switch failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to switch service: " + err.Error()})
		return
	}

	logging.Info(c).Str("service", string(engine.Kind())).Str("model", engine.CurrentModel()).Msg("Detection service switched")
	c.JSON(http.StatusOK, SwitchServiceResponse{
		Status:  "Switched to " + string(engine.Kind()),
		Service: string(engine.Kind()),
		Model:   engine.CurrentModel(),
	})
}

func (h *DetectionHandler) kindList() string {
	kinds := h.container.Factory.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = "'" + string(k) + "'"
	}
	return strings.Join(names, ", ")
}

func (h *DetectionHandler) placeholder() *models.Frame {
	cfg := h.container.Config
	return helpers.MessageFrame(cfg.ImageWidth, cfg.ImageHeight, NoCaptureMessage)
}

func (h *DetectionHandler) writeJPEG(c *gin.Context, frame *models.Frame) {
	buf, err := helpers.EncodeJPEG(frame, h.quality)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to encode frame")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", buf)
}

// readUpload reads at most limit bytes and fails with errUploadTooLarge
// when the upload is longer
func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}
