package handlers

import (
	"terangaride/internal/models"
	"terangaride/internal/services"
	"terangaride/internal/utils"
	"terangaride/internal/validators"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService    services.PaymentService
	commissionService services.CommissionService
	driverService     services.DriverService
}

func NewPaymentHandler(paymentService services.PaymentService, commissionService services.CommissionService, driverService services.DriverService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:    paymentService,
		commissionService: commissionService,
		driverService:     driverService,
	}
}

// InitierPaiement opens the settlement of a finished ride
func (h *PaymentHandler) InitierPaiement(c *gin.Context) {
	var request services.InitierPaiementRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := validators.ValidateInitierPaiement(&request); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	payment, err := h.paymentService.InitierPaiement(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Paiement initie", payment)
}

// GetPaiement returns one payment with its full history
func (h *PaymentHandler) GetPaiement(c *gin.Context) {
	paymentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Paiement", payment)
}

// ChangerStatut drives a payment through the state machine
func (h *PaymentHandler) ChangerStatut(c *gin.Context) {
	paymentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request struct {
		Statut models.PaymentStatus `json:"statut" binding:"required"`
		Raison string               `json:"raison"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := validators.ValidateStatutCible(request.Statut); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.ChangerStatut(c.Request.Context(), paymentID, request.Statut, userID.Hex(), request.Raison)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Statut mis a jour", payment)
}

// AnnulerPaiement cancels a payment inside the cancellation window
func (h *PaymentHandler) AnnulerPaiement(c *gin.Context) {
	paymentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request struct {
		Raison string `json:"raison"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.AnnulerPaiement(c.Request.Context(), paymentID, userID.Hex(), request.Raison)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Paiement annule", payment)
}

// RembourserPaiement reverses a completed payment
func (h *PaymentHandler) RembourserPaiement(c *gin.Context) {
	paymentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request struct {
		Raison string `json:"raison" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.RembourserPaiement(c.Request.Context(), paymentID, userID.Hex(), request.Raison)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Paiement rembourse", payment)
}

// GetCommission returns the commission ledger entry of a payment
func (h *PaymentHandler) GetCommission(c *gin.Context) {
	paymentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.commissionService.GetByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Commission", entry)
}

// GetMesPaiements lists the authenticated driver's payments
func (h *PaymentHandler) GetMesPaiements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	driver, err := h.driverService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.GetByConducteurID(c.Request.Context(), driver.ID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Paiements", payments, meta)
}
