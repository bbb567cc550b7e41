package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vision-worker-go/internal/services"
)

type HealthHandler struct {
	container *services.ServiceContainer
}

func NewHealthHandler(container *services.ServiceContainer) *HealthHandler {
	return &HealthHandler{container: container}
}

type HealthResponse struct {
	Status         string  `json:"status" example:"healthy"`
	SimulationMode bool    `json:"simulation_mode"`
	ModelLoaded    bool    `json:"model_loaded"`
	ModelName      *string `json:"model_name"`
}

// @Summary Health check
// @Description Report liveness, simulation mode and whether a model is loaded
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:         "healthy",
		SimulationMode: h.container.Config.SimulationMode,
	}
	if !resp.SimulationMode {
		engine := h.container.Engine()
		name := engine.CurrentModel()
		resp.ModelLoaded = engine.IsLoaded()
		resp.ModelName = &name
	}
	c.JSON(http.StatusOK, resp)
}
