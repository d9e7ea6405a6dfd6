package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/pagination"
	"fireboard/internal/services"
)

// FireHandler handles FIRE progress requests.
type FireHandler struct {
	fireService services.FireServicer
}

// NewFireHandler creates a new FireHandler.
func NewFireHandler(fireService services.FireServicer) *FireHandler {
	return &FireHandler{fireService: fireService}
}

// RecordSnapshotRequest represents the request payload for recording a
// snapshot. RecordedAt defaults to now when omitted.
type RecordSnapshotRequest struct {
	RecordedAt *time.Time `json:"recorded_at"`
}

// GetProgress returns the current FIRE state
// @Summary     Get FIRE progress
// @Description Compute the user's current progress toward financial independence
// @Tags        fire
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.FireProgress "Progress"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /fire/progress [get]
func (h *FireHandler) GetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.fireService.GetProgress(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// RecordSnapshot stores the current FIRE state
// @Summary     Record a snapshot
// @Description Store the current FIRE state as a point-in-time snapshot
// @Tags        fire
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordSnapshotRequest false "Recording time (defaults to now)"
// @Success     201 {object} models.FireSnapshot "Snapshot recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /fire/snapshots [post]
func (h *FireHandler) RecordSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordSnapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	snapshot, err := h.fireService.RecordSnapshot(userID, recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// GetSnapshots lists the user's snapshots
// @Summary     List snapshots
// @Description Get a paginated list of FIRE snapshots, newest first
// @Tags        fire
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.FireSnapshot] "Snapshots"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /fire/snapshots [get]
func (h *FireHandler) GetSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshots, err := h.fireService.GetSnapshots(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}
