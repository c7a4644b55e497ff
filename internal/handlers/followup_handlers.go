package handlers

import (
	"errors"
	"net/http"

	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FollowupHandler holds the followup service.
type FollowupHandler struct {
	followupService services.FollowupService
}

// NewFollowupHandler creates a new FollowupHandler.
func NewFollowupHandler(fs services.FollowupService) *FollowupHandler {
	return &FollowupHandler{followupService: fs}
}

// CreateFollowup handles manual creation of a followup task.
func (h *FollowupHandler) CreateFollowup(c *gin.Context) {
	var req services.CreateFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateFollowup: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	followup, err := h.followupService.CreateFollowup(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateFollowup: Error from followupService.CreateFollowup")
		if errors.Is(err, services.ErrFollowupValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create followup.", err.Error()))
		}
		return
	}
	c.JSON(http.StatusCreated, followup)
}

// GetFollowups handles fetching all followups, optionally filtered by status.
func (h *FollowupHandler) GetFollowups(c *gin.Context) {
	followups, err := h.followupService.GetFollowups(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.LogError(err, "GetFollowups: Error from followupService.GetFollowups")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch followups.", err.Error()))
		return
	}
	c.JSON(http.StatusOK, followups)
}

// UpdateFollowup handles updating a followup's schedule, response, or status.
func (h *FollowupHandler) UpdateFollowup(c *gin.Context) {
	var req services.UpdateFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateFollowup: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	followup, err := h.followupService.UpdateFollowup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondFollowupError(c, err, "UpdateFollowup")
		return
	}
	c.JSON(http.StatusOK, followup)
}

// DeleteFollowup handles deleting a followup.
func (h *FollowupHandler) DeleteFollowup(c *gin.Context) {
	if err := h.followupService.DeleteFollowup(c.Request.Context(), c.Param("id")); err != nil {
		h.respondFollowupError(c, err, "DeleteFollowup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Followup deleted successfully"})
}

func (h *FollowupHandler) respondFollowupError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation+": Error from followupService")
	if errors.Is(err, services.ErrFollowupValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else if errors.Is(err, services.ErrFollowupNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Followup not found.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Operation failed.", err.Error()))
	}
}
