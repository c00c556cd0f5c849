package routes

import (
	"terangaride/internal/handlers"
	"terangaride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRechargeRoutes sets up routes for prepaid account recharges
func SetupRechargeRoutes(r *gin.RouterGroup, jwtSecret string, rechargeHandler *handlers.RechargeHandler) {
	recharges := r.Group("/drivers/me")
	recharges.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		recharges.GET("/compte-recharge", rechargeHandler.GetCompteRecharge)
		recharges.POST("/recharges", rechargeHandler.InitierRecharge)
		recharges.POST("/recharges/:reference/annuler", rechargeHandler.AnnulerRecharge)
		recharges.PUT("/auto-recharge", rechargeHandler.ConfigurerAutoRecharge)
		recharges.POST("/retraits", rechargeHandler.DemanderRetrait)
	}
}
