package handlers

import (
	"errors"
	"strings"

	"terangaride/internal/services"
	"terangaride/internal/utils"
	"terangaride/internal/validators"
	"terangaride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	paymentService  services.PaymentService
	rechargeService services.RechargeService
	logger          *logger.Logger
}

func NewWebhookHandler(paymentService services.PaymentService, rechargeService services.RechargeService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		paymentService:  paymentService,
		rechargeService: rechargeService,
		logger:          logger,
	}
}

// HandleMobileMoneyCallback ingests an operator webhook. The endpoint always
// acknowledges with 200 once the payload parses: operators retry on any other
// status, and replay safety lives in the services, not in the transport.
func (h *WebhookHandler) HandleMobileMoneyCallback(c *gin.Context) {
	var callback services.MobileMoneyCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		utils.BadRequestResponse(c, "Invalid callback: "+err.Error())
		return
	}
	callback.Provider = c.Param("provider")

	if err := validators.ValidateCallback(&callback); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	log := h.logger.WithReference(callback.Reference).WithField("transaction_id", callback.TransactionID)

	var err error
	switch {
	case strings.HasPrefix(callback.Reference, "PAY-"):
		err = h.paymentService.TraiterCallback(c.Request.Context(), &callback)
	case strings.HasPrefix(callback.Reference, "RCH-"):
		err = h.rechargeService.TraiterCallback(c.Request.Context(), &callback)
	default:
		log.Warn("callback with unknown reference format")
		utils.SuccessResponse(c, "Callback ignore", nil)
		return
	}

	if err != nil {
		if errors.Is(err, services.ErrDuplicateTransaction) {
			log.Debug("duplicate callback absorbed")
			utils.SuccessResponse(c, "Callback deja traite", nil)
			return
		}
		log.WithError(err).Error("callback processing failed")
	}

	utils.SuccessResponse(c, "Callback recu", nil)
}
