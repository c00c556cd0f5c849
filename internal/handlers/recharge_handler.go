package handlers

import (
	"terangaride/internal/models"
	"terangaride/internal/services"
	"terangaride/internal/utils"
	"terangaride/internal/validators"

	"github.com/gin-gonic/gin"
)

type RechargeHandler struct {
	rechargeService services.RechargeService
	driverService   services.DriverService
}

func NewRechargeHandler(rechargeService services.RechargeService, driverService services.DriverService) *RechargeHandler {
	return &RechargeHandler{
		rechargeService: rechargeService,
		driverService:   driverService,
	}
}

// InitierRecharge starts a mobile money top-up of the caller's prepaid account
func (h *RechargeHandler) InitierRecharge(c *gin.Context) {
	driver, ok := h.resolveDriver(c)
	if !ok {
		return
	}

	var request services.InitierRechargeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	request.DriverID = driver.ID

	if err := validators.ValidateInitierRecharge(&request); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	recharge, err := h.rechargeService.InitierRecharge(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Recharge initiee", recharge)
}

// AnnulerRecharge cancels a pending recharge inside the cancellation window
func (h *RechargeHandler) AnnulerRecharge(c *gin.Context) {
	driver, ok := h.resolveDriver(c)
	if !ok {
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		utils.BadRequestResponse(c, "Missing recharge reference")
		return
	}

	if err := h.rechargeService.AnnulerRecharge(c.Request.Context(), driver.ID, reference); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Recharge annulee", nil)
}

// GetCompteRecharge returns the caller's prepaid account
func (h *RechargeHandler) GetCompteRecharge(c *gin.Context) {
	driver, ok := h.resolveDriver(c)
	if !ok {
		return
	}

	compte, err := h.rechargeService.GetCompteRecharge(c.Request.Context(), driver.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Compte de recharge", compte)
}

// ConfigurerAutoRecharge updates the caller's automatic top-up settings
func (h *RechargeHandler) ConfigurerAutoRecharge(c *gin.Context) {
	driver, ok := h.resolveDriver(c)
	if !ok {
		return
	}

	var settings models.AutoRecharge
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.driverService.ConfigurerAutoRecharge(c.Request.Context(), driver.ID, &settings); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Auto-recharge configuree", settings)
}

// DemanderRetrait pays out part of the caller's prepaid balance
func (h *RechargeHandler) DemanderRetrait(c *gin.Context) {
	driver, ok := h.resolveDriver(c)
	if !ok {
		return
	}

	var request struct {
		Montant float64 `json:"montant" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	change, err := h.driverService.DemanderRetrait(c.Request.Context(), driver.ID, request.Montant)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Retrait effectue", change)
}

func (h *RechargeHandler) resolveDriver(c *gin.Context) (*models.Driver, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	driver, err := h.driverService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return driver, true
}
