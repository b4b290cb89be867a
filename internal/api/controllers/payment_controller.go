package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"keyshop/internal/services"
	"keyshop/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// HandleWebhook godoc
// @Summary Gateway payment notification endpoint
// @Description Idempotent: redelivered notifications are acknowledged without side effects
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	resp, err := p.paymentService.HandleWebhook(c.Request.Context(), rawBody)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, resp.Message)
}
