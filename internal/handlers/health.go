package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/config"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthResponse reports the service and its dependencies
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// HealthCheck godoc
// @Summary Verificação de saúde do serviço
// @Description Verifica a conectividade com MongoDB e Redis
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"mongodb": "ok",
		"redis":   "ok",
	}
	status := http.StatusOK

	if config.MongoDB == nil {
		checks["mongodb"] = "not initialized"
		status = http.StatusServiceUnavailable
	} else if err := config.MongoDB.Client().Ping(ctx, readpref.Primary()); err != nil {
		checks["mongodb"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	if config.Redis == nil {
		checks["redis"] = "not initialized"
		status = http.StatusServiceUnavailable
	} else if err := config.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, HealthResponse{
		Status:  overall,
		Service: "quote-api",
		Checks:  checks,
	})
}
