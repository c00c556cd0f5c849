package routes

import (
	"terangaride/internal/handlers"
	"terangaride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes sets up routes for back-office operations
func SetupAdminRoutes(r *gin.RouterGroup, jwtSecret string, adminHandler *handlers.AdminHandler) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		// Remediation of failed commission collections
		admin.GET("/commissions/echecs", adminHandler.GetFileEchecs)
		admin.POST("/commissions/remediation", adminHandler.Remedier)

		// Reconciliation lots
		admin.POST("/lots", adminHandler.GenererLot)
		admin.GET("/lots", adminHandler.ListLots)
		admin.GET("/lots/:numero", adminHandler.GetLot)
		admin.GET("/lots/:numero/export", adminHandler.ExporterLot)

		// Activity reports
		admin.GET("/statistiques", adminHandler.GetStatistiques)
		admin.GET("/statistiques/export", adminHandler.ExporterStatistiques)

		// Drivers
		admin.GET("/conducteurs", adminHandler.ListConducteurs)
		admin.GET("/conducteurs/:id", adminHandler.GetConducteur)

		// Audit trail
		admin.GET("/audit/:resource/:id", adminHandler.GetHistoriqueAudit)
	}
}
