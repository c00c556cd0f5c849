package routes

import (
	"terangaride/internal/handlers"
	"terangaride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes sets up routes for payment and webhook functionality
func SetupPaymentRoutes(r *gin.RouterGroup, jwtSecret string, paymentHandler *handlers.PaymentHandler, webhookHandler *handlers.WebhookHandler) {
	// Public webhook routes (no auth required, operators cannot sign in)
	webhooks := r.Group("/webhooks/mobilemoney")
	{
		webhooks.POST("/:provider", webhookHandler.HandleMobileMoneyCallback)
	}

	// Protected payment routes (require authentication)
	payments := r.Group("/payments")
	payments.Use(middleware.AuthRequired(jwtSecret))
	{
		payments.POST("/", paymentHandler.InitierPaiement)
		payments.GET("/:id", paymentHandler.GetPaiement)
		payments.PUT("/:id/statut", paymentHandler.ChangerStatut)
		payments.POST("/:id/annuler", paymentHandler.AnnulerPaiement)
		payments.GET("/:id/commission", paymentHandler.GetCommission)
	}

	// Refunds are an admin decision
	adminPayments := r.Group("/payments")
	adminPayments.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		adminPayments.POST("/:id/rembourser", paymentHandler.RembourserPaiement)
	}

	// Driver-facing payment history
	driverPayments := r.Group("/drivers/me")
	driverPayments.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		driverPayments.GET("/payments", paymentHandler.GetMesPaiements)
	}
}
