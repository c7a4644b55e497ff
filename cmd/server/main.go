package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"gym_crm_backend/internal/database"
	router_pkg "gym_crm_backend/internal/router"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Initialize Logger
	utils.InitLogger()

	// .env is optional; real deployments configure through the environment.
	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file found, reading configuration from environment")
	}

	utils.InitJWT(utils.Getenv("JWT_SECRET", "gym-crm-dev-secret-change-me"))

	mongoURI := utils.Getenv("MONGO_URI", "mongodb://localhost:27017")
	dbName := utils.Getenv("DB_NAME", "gym_crm")

	database.InitDB(mongoURI, dbName)
	defer database.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"db": dbName})

	router := gin.Default()

	// Add GinLogger middleware for request logging
	router.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	router_pkg.Setup(router, database.GetDB())

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := router.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
