package handlers

import (
	"time"

	"terangaride/internal/services"
	"terangaride/internal/utils"
	"terangaride/internal/validators"
	"terangaride/pkg/export"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	remediationService    services.RemediationService
	reconciliationService services.ReconciliationService
	paymentService        services.PaymentService
	commissionService     services.CommissionService
	driverService         services.DriverService
	auditService          services.AuditService
}

func NewAdminHandler(
	remediationService services.RemediationService,
	reconciliationService services.ReconciliationService,
	paymentService services.PaymentService,
	commissionService services.CommissionService,
	driverService services.DriverService,
	auditService services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		remediationService:    remediationService,
		reconciliationService: reconciliationService,
		paymentService:        paymentService,
		commissionService:     commissionService,
		driverService:         driverService,
		auditService:          auditService,
	}
}

// GetFileEchecs lists the failed commission entries awaiting remediation
func (h *AdminHandler) GetFileEchecs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	entries, total, err := h.remediationService.GetFileEchecs(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "File des echecs", entries, meta)
}

// Remedier applies retry, waive or manual to a batch of failed collections
func (h *AdminHandler) Remedier(c *gin.Context) {
	var request services.RemediationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := validators.ValidateRemediation(&request); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	acteurID, ok := currentUserID(c)
	if !ok {
		return
	}
	request.ActeurID = acteurID

	outcomes, err := h.remediationService.Traiter(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Remediation traitee", outcomes)
}

// GenererLot claims the collected commissions of a window into a new lot
func (h *AdminHandler) GenererLot(c *gin.Context) {
	var request services.GenererLotRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := validators.ValidateGenererLot(&request); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	acteurID, ok := currentUserID(c)
	if !ok {
		return
	}
	request.ActeurID = acteurID

	lot, err := h.reconciliationService.GenererLot(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Lot genere", lot)
}

// GetLot returns a lot with its member entries
func (h *AdminHandler) GetLot(c *gin.Context) {
	numeroLot := c.Param("numero")

	lot, entries, err := h.reconciliationService.GetLot(c.Request.Context(), numeroLot)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Lot", gin.H{"lot": lot, "entrees": entries})
}

// ListLots lists the reconciliation lots
func (h *AdminHandler) ListLots(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	lots, total, err := h.reconciliationService.ListLots(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Lots", lots, meta)
}

// ExporterLot streams a lot as CSV or PDF
func (h *AdminHandler) ExporterLot(c *gin.Context) {
	numeroLot := c.Param("numero")
	format := c.DefaultQuery("format", "csv")

	var (
		contenu []byte
		err     error
	)
	switch format {
	case "csv":
		contenu, err = h.reconciliationService.ExporterLotCSV(c.Request.Context(), numeroLot)
		if err == nil {
			c.Header("Content-Disposition", "attachment; filename="+numeroLot+".csv")
			c.Data(200, "text/csv", contenu)
			return
		}
	case "pdf":
		contenu, err = h.reconciliationService.ExporterLotPDF(c.Request.Context(), numeroLot)
		if err == nil {
			c.Header("Content-Disposition", "attachment; filename="+numeroLot+".pdf")
			c.Data(200, "application/pdf", contenu)
			return
		}
	default:
		utils.BadRequestResponse(c, "Unknown export format: "+format)
		return
	}

	handleServiceError(c, err)
}

// GetStatistiques aggregates payment and commission activity over a period
func (h *AdminHandler) GetStatistiques(c *gin.Context) {
	dateDebut, dateFin, ok := parsePeriode(c)
	if !ok {
		return
	}

	paymentStats, err := h.paymentService.GetStats(c.Request.Context(), dateDebut, dateFin)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Statistiques", paymentStats)
}

// ExporterStatistiques streams the commission report of a period as PDF
func (h *AdminHandler) ExporterStatistiques(c *gin.Context) {
	dateDebut, dateFin, ok := parsePeriode(c)
	if !ok {
		return
	}

	stats, err := h.commissionService.GetStats(c.Request.Context(), dateDebut, dateFin)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	contenu, err := export.BuildStatsPDF(stats)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=commissions.pdf")
	c.Data(200, "application/pdf", contenu)
}

// ListConducteurs lists the registered drivers with their prepaid accounts
func (h *AdminHandler) ListConducteurs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	drivers, total, err := h.driverService.List(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Conducteurs", drivers, meta)
}

// GetConducteur returns one driver with its prepaid account
func (h *AdminHandler) GetConducteur(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	driver, err := h.driverService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Conducteur", driver)
}

// GetHistoriqueAudit returns the audit trail of a resource
func (h *AdminHandler) GetHistoriqueAudit(c *gin.Context) {
	resource := c.Param("resource")
	resourceID := c.Param("id")

	params := utils.GetPaginationParams(c)
	logs, total, err := h.auditService.GetResourceHistory(c.Request.Context(), resource, resourceID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Historique d'audit", logs, meta)
}

func parsePeriode(c *gin.Context) (time.Time, time.Time, bool) {
	dateDebut, err := time.Parse("2006-01-02", c.Query("date_debut"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid date_debut, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}

	dateFin, err := time.Parse("2006-01-02", c.Query("date_fin"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid date_fin, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}

	if !dateFin.After(dateDebut) {
		utils.BadRequestResponse(c, "date_fin must be after date_debut")
		return time.Time{}, time.Time{}, false
	}

	return dateDebut, dateFin, true
}
