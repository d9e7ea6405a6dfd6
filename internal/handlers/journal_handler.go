package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/services"
)

// JournalHandler handles trading journal requests.
type JournalHandler struct {
	journalService services.JournalServicer
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalService services.JournalServicer) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// JournalEntryRequest represents the request payload for creating or
// updating a journal entry.
type JournalEntryRequest struct {
	Date        time.Time `json:"date" binding:"required"`
	Symbol      string    `json:"symbol" binding:"required,min=1,max=20"`
	Direction   string    `json:"direction" binding:"required,journal_direction"`
	Setup       string    `json:"setup" binding:"max=100"`
	StrategyTag string    `json:"strategy_tag" binding:"max=100"`
	EntryPrice  float64   `json:"entry_price" binding:"gte=0"`
	ExitPrice   float64   `json:"exit_price" binding:"gte=0"`
	Quantity    float64   `json:"quantity" binding:"gte=0"`
	ResultR     float64   `json:"result_r"`
	Outcome     string    `json:"outcome" binding:"required,journal_outcome"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// JournalListQuery represents the query parameters for listing entries.
type JournalListQuery struct {
	pagination.PageRequest
	Symbol      *string `form:"symbol"`
	Outcome     *string `form:"outcome" binding:"omitempty,journal_outcome"`
	StrategyTag *string `form:"strategy_tag"`
}

func (r JournalEntryRequest) toInput() services.JournalEntryInput {
	return services.JournalEntryInput{
		Date:        r.Date,
		Symbol:      r.Symbol,
		Direction:   models.JournalDirection(r.Direction),
		Setup:       r.Setup,
		StrategyTag: r.StrategyTag,
		EntryPrice:  r.EntryPrice,
		ExitPrice:   r.ExitPrice,
		Quantity:    r.Quantity,
		ResultR:     r.ResultR,
		Outcome:     models.JournalOutcome(r.Outcome),
		Notes:       r.Notes,
	}
}

// CreateEntry records a journal entry
// @Summary     Create a journal entry
// @Description Record a trading journal entry
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body JournalEntryRequest true "Entry details"
// @Success     201 {object} models.JournalEntry "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal [post]
func (h *JournalHandler) CreateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entry, err := h.journalService.CreateEntry(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// GetEntries lists the user's journal entries
// @Summary     List journal entries
// @Description Get a paginated, filtered list of journal entries, newest first
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       symbol query string false "Symbol filter"
// @Param       outcome query string false "Outcome filter"
// @Param       strategy_tag query string false "Strategy tag filter"
// @Success     200 {object} pagination.PageResponse[models.JournalEntry] "Entries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal [get]
func (h *JournalHandler) GetEntries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query JournalListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.JournalFilter{
		Symbol:      query.Symbol,
		StrategyTag: query.StrategyTag,
	}
	if query.Outcome != nil {
		outcome := models.JournalOutcome(*query.Outcome)
		filter.Outcome = &outcome
	}

	result, err := h.journalService.GetUserEntries(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEntry returns a single journal entry
// @Summary     Get a journal entry
// @Description Get one journal entry by ID
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Entry ID"
// @Success     200 {object} models.JournalEntry "Entry"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal/{id} [get]
func (h *JournalHandler) GetEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.journalService.GetEntryByID(userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateEntry replaces a journal entry
// @Summary     Update a journal entry
// @Description Replace a journal entry's content
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Entry ID"
// @Param       request body JournalEntryRequest true "Entry details"
// @Success     200 {object} models.JournalEntry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal/{id} [put]
func (h *JournalHandler) UpdateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entry, err := h.journalService.UpdateEntry(userID, entryID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry removes a journal entry
// @Summary     Delete a journal entry
// @Description Remove a journal entry
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Entry ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal/{id} [delete]
func (h *JournalHandler) DeleteEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.journalService.DeleteEntry(userID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Journal entry deleted"})
}

// GetStats returns journal performance statistics
// @Summary     Get journal stats
// @Description Aggregate closed journal entries into win rate and expectancy in R multiples
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.JournalStats "Stats"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /journal/stats [get]
func (h *JournalHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.journalService.GetStats(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
