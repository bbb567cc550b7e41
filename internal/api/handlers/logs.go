package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/services"
	"vision-worker-go/internal/services/logbuffer"
)

type LogsHandler struct {
	container *services.ServiceContainer
}

func NewLogsHandler(container *services.ServiceContainer) *LogsHandler {
	return &LogsHandler{container: container}
}

type LogRequest struct {
	Level   string `json:"level" example:"INFO"`
	Message string `json:"message" example:"operator note"`
	Context string `json:"context" example:"dashboard"`
}

type LogRecordedResponse struct {
	Status  string `json:"status" example:"Log recorded"`
	Level   string `json:"level" example:"INFO"`
	Message string `json:"message"`
}

type AllLogsResponse struct {
	Logs map[logbuffer.Level][]logbuffer.Entry `json:"logs"`
}

type LevelLogsResponse struct {
	Level string            `json:"level" example:"DECISION"`
	Logs  []logbuffer.Entry `json:"logs"`
	Count int               `json:"count"`
}

// @Summary Record a log entry
// @Description Append an entry to the operational log buffer. Level defaults to INFO.
// @Tags logs
// @Accept json
// @Produce json
// @Param request body LogRequest true "Log entry"
// @Success 200 {object} LogRecordedResponse
// @Failure 400 {object} ErrorResponse
// @Router /logs [post]
func (h *LogsHandler) PostLog(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
		return
	}
	if req.Level == "" {
		req.Level = string(logbuffer.LevelInfo)
	}
	level, ok := logbuffer.ParseLevel(req.Level)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid log level: %s. Must be one of: %s", level, levelNames())})
		return
	}

	h.container.Log(level, req.Message, req.Context)
	c.JSON(http.StatusOK, LogRecordedResponse{Status: "Log recorded", Level: string(level), Message: req.Message})
}

// @Summary All log entries
// @Description Snapshot of every level's buffered entries
// @Tags logs
// @Produce json
// @Success 200 {object} AllLogsResponse
// @Router /logs [get]
func (h *LogsHandler) GetLogs(c *gin.Context) {
	c.JSON(http.StatusOK, AllLogsResponse{Logs: h.container.AllLogs()})
}

// @Summary Log entries for one level
// @Tags logs
// @Produce json
// @Param level path string true "ERROR, WARNING, INFO, DETECTION or DECISION"
// @Success 200 {object} LevelLogsResponse
// @Failure 400 {object} ErrorResponse
// @Router /logs/{level} [get]
func (h *LogsHandler) GetLogsByLevel(c *gin.Context) {
	raw := c.Param("level")
	level, ok := logbuffer.ParseLevel(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown log level: " + raw})
		return
	}
	logs := h.container.LogsByLevel(level)
	c.JSON(http.StatusOK, LevelLogsResponse{Level: string(level), Logs: logs, Count: len(logs)})
}

// @Summary Clear logs
// @Tags logs
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /logs/clear [post]
func (h *LogsHandler) ClearLogs(c *gin.Context) {
	h.container.ClearLogs()
	c.JSON(http.StatusOK, StatusResponse{Status: "Logs cleared"})
}

func levelNames() string {
	names := make([]string, len(logbuffer.Levels))
	for i, l := range logbuffer.Levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
