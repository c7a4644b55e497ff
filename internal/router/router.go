package router

import (
	"context"
	"time"

	"gym_crm_backend/internal/handlers"
	"gym_crm_backend/internal/middleware"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *mongo.Database) {
	// Initialize Repositories
	billRepo := repositories.NewBillRepository(db.Collection("gymbills"))
	followupRepo := repositories.NewFollowupRepository(db.Collection("followups"))
	userRepo := repositories.NewUserRepository(db.Collection("users"))

	// Member ids are unique across the collection; enforce it at the index level.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := billRepo.EnsureIndexes(ctx); err != nil {
		utils.LogError(err, "Failed to ensure bill collection indexes")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		utils.LogError(err, "Failed to ensure user collection indexes")
	}

	// Initialize Services
	followupService := services.NewFollowupService(followupRepo)
	billService := services.NewBillService(billRepo, followupRepo)
	invoiceService := services.NewInvoiceService()
	authService := services.NewAuthService(userRepo)

	// Initialize Handlers
	billHandler := handlers.NewBillHandler(billService, invoiceService)
	followupHandler := handlers.NewFollowupHandler(followupService)
	authHandler := handlers.NewAuthHandler(authService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)
	SetupBillRoutes(apiV1, billHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupFollowupRoutes(authenticated, followupHandler)
	}
}
