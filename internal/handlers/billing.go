package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/middleware"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.uber.org/zap"
)

// SimulateBilling godoc
// @Summary Simular mudança de assinatura
// @Description Aplica uma ação do simulador de cobrança (activate, cancel, past_due, trialing) à assinatura do usuário. Nenhum provedor de pagamento é acionado.
// @Tags billing
// @Accept json
// @Produce json
// @Param data body models.BillingSimulateRequest true "Ação e plano"
// @Security BearerAuth
// @Success 200 {object} models.BillingSimulateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.StageErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /billing/simulate [post]
func SimulateBilling(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "simulate_billing", nil)
	defer complete()

	userID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
		return
	}

	var req models.BillingSimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "corpo da requisição inválido"})
		return
	}

	resp, err := services.BillingServiceInstance.Simulate(ctx, userID, &req)
	if err != nil {
		observability.Logger().Warn("billing simulation failed",
			zap.String("action", req.Action),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSubscription godoc
// @Summary Consultar assinatura simulada
// @Description Retorna a assinatura simulada do usuário autenticado
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Subscription
// @Failure 401 {object} models.StageErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /billing/subscription [get]
func GetSubscription(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "get_subscription", nil)
	defer complete()

	userID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
		return
	}

	subscription, err := services.BillingServiceInstance.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionAbsent) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: models.ErrSubscriptionAbsent.Error()})
			return
		}
		observability.Logger().Error("failed to load subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao consultar assinatura"})
		return
	}

	c.JSON(http.StatusOK, subscription)
}
