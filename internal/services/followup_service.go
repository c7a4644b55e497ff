package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Custom Service Errors for Followup ---
var (
	ErrFollowupNotFound   = errors.New("followup not found")
	ErrFollowupValidation = errors.New("followup data validation error")
)

// --- Followup DTOs ---
type CreateFollowupRequest struct {
	Client       string `json:"client" binding:"required"`
	FollowupType string `json:"followupType"`
	ScheduleDate string `json:"scheduleDate" binding:"required"`
	Response     string `json:"response"`
	Status       string `json:"status"`
}

type UpdateFollowupRequest struct {
	ScheduleDate *string `json:"scheduleDate"`
	Response     *string `json:"response"`
	Status       *string `json:"status"`
}

// --- FollowupService Interface ---
type FollowupService interface {
	CreateFollowup(ctx context.Context, req CreateFollowupRequest) (*models.Followup, error)
	GetFollowups(ctx context.Context, status string) ([]models.Followup, error)
	UpdateFollowup(ctx context.Context, id string, req UpdateFollowupRequest) (*models.Followup, error)
	DeleteFollowup(ctx context.Context, id string) error
}

// --- followupService Implementation ---
type followupService struct {
	followupRepo repositories.FollowupRepository
}

// NewFollowupService creates a new instance of FollowupService.
func NewFollowupService(repo repositories.FollowupRepository) FollowupService {
	return &followupService{followupRepo: repo}
}

func (s *followupService) CreateFollowup(ctx context.Context, req CreateFollowupRequest) (*models.Followup, error) {
	clientID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.Client))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid client reference %q", ErrFollowupValidation, req.Client)
	}
	if strings.TrimSpace(req.ScheduleDate) == "" {
		return nil, fmt.Errorf("%w: schedule date is required", ErrFollowupValidation)
	}

	followupType := req.FollowupType
	if followupType == "" {
		followupType = models.FollowupTypePayment
	}
	status := req.Status
	if status == "" {
		status = models.FollowupStatusPending
	}

	now := time.Now()
	followup := &models.Followup{
		Client:       clientID,
		FollowupType: followupType,
		ScheduleDate: req.ScheduleDate,
		Response:     req.Response,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.followupRepo.Create(ctx, followup); err != nil {
		return nil, fmt.Errorf("failed to create followup in repository: %w", err)
	}
	return followup, nil
}

func (s *followupService) GetFollowups(ctx context.Context, status string) ([]models.Followup, error) {
	followups, err := s.followupRepo.FindAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get followups: %w", err)
	}
	return followups, nil
}

func (s *followupService) UpdateFollowup(ctx context.Context, id string, req UpdateFollowupRequest) (*models.Followup, error) {
	followupID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid followup ID %q", ErrFollowupValidation, id)
	}

	fields := bson.M{"updatedAt": time.Now()}
	if req.ScheduleDate != nil {
		fields["scheduleDate"] = *req.ScheduleDate
	}
	if req.Response != nil {
		fields["response"] = *req.Response
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	followup, err := s.followupRepo.UpdateFields(ctx, followupID, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFollowupNotFound
		}
		return nil, fmt.Errorf("failed to update followup in repository: %w", err)
	}
	return followup, nil
}

func (s *followupService) DeleteFollowup(ctx context.Context, id string) error {
	followupID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: invalid followup ID %q", ErrFollowupValidation, id)
	}
	if err := s.followupRepo.Delete(ctx, followupID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrFollowupNotFound
		}
		return fmt.Errorf("failed to delete followup: %w", err)
	}
	return nil
}
