package router

import (
	"gym_crm_backend/internal/handlers"
	"gym_crm_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.RegisterUser)
		authRoutes.POST("/login", authHandler.LoginUser)
		authRoutes.POST("/refresh-token", authHandler.RefreshToken)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupBillRoutes sets up the gym bill routes.
func SetupBillRoutes(apiGroup *gin.RouterGroup, billHandler *handlers.BillHandler) {
	billRoutes := apiGroup.Group("/bills")
	{
		billRoutes.POST("", billHandler.CreateBill)
		billRoutes.GET("", billHandler.GetBills)
		billRoutes.GET("/image/:id", billHandler.GetBillImage)
		billRoutes.GET("/invoice/:id", billHandler.DownloadInvoice)
		billRoutes.PUT("/renew/:id", billHandler.RenewBill)
		billRoutes.PUT("/renew/edit/:clientId/:renewId", billHandler.EditRenewalEntry)
		billRoutes.DELETE("/renew/delete/:clientId/:renewId", billHandler.DeleteRenewalEntry)
		billRoutes.PUT("/payment/:id", billHandler.RecordPayment)
		billRoutes.PUT("/:id", billHandler.UpdateBill)
		billRoutes.DELETE("/:id", billHandler.DeleteBill)
	}
}

// SetupFollowupRoutes sets up the followup routes.
func SetupFollowupRoutes(authenticatedGroup *gin.RouterGroup, followupHandler *handlers.FollowupHandler) {
	followupRoutes := authenticatedGroup.Group("/followups")
	followupRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		followupRoutes.POST("", followupHandler.CreateFollowup)
		followupRoutes.GET("", followupHandler.GetFollowups)
		followupRoutes.PUT("/:id", followupHandler.UpdateFollowup)
		followupRoutes.DELETE("/:id", followupHandler.DeleteFollowup)
	}
}
