package main

import (
	"context"
	"errors"
	"log"
	"time"

	"gym_crm_backend/internal/database"
	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/utils"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds the initial admin account so a fresh deployment can log in.
func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file found, reading configuration from environment")
	}

	mongoURI := utils.Getenv("MONGO_URI", "mongodb://localhost:27017")
	dbName := utils.Getenv("DB_NAME", "gym_crm")

	database.InitDB(mongoURI, dbName)
	defer database.Close()

	userRepo := repositories.NewUserRepository(database.GetDB().Collection("users"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure user indexes: %v", err)
	}

	username := utils.Getenv("SEED_ADMIN_USERNAME", "admin")
	password := utils.Getenv("SEED_ADMIN_PASSWORD", "admin123")

	_, err := userRepo.FindByUsername(ctx, username)
	if err == nil {
		utils.LogInfo("Admin user already exists, nothing to do", map[string]interface{}{"username": username})
		return
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		log.Fatalf("Failed to check for existing admin user: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	now := time.Now()
	admin := &models.User{
		Username:  username,
		Password:  string(hashed),
		Role:      "Admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	utils.LogInfo("Admin user created", map[string]interface{}{"username": username})
}
