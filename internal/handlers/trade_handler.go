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

// maxImportSize caps uploaded CSV files at 10 MiB.
const maxImportSize = 10 << 20

// TradeHandler handles trade ledger and position requests.
type TradeHandler struct {
	tradeService services.TradeServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeService services.TradeServicer) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// TradeRequest represents the request payload for creating or updating a trade.
type TradeRequest struct {
	Date        time.Time `json:"date" binding:"required"`
	Account     string    `json:"account" binding:"max=100"`
	StrategyTag string    `json:"strategy_tag" binding:"max=100"`
	Symbol      string    `json:"symbol" binding:"required,min=1,max=20"`
	Side        string    `json:"side" binding:"required,trade_side"`
	Quantity    float64   `json:"quantity" binding:"required,gt=0"`
	Price       float64   `json:"price" binding:"gte=0"`
}

// TradeListQuery represents the query parameters for listing trades.
type TradeListQuery struct {
	pagination.PageRequest
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
	Account     *string    `form:"account"`
	Symbol      *string    `form:"symbol"`
	StrategyTag *string    `form:"strategy_tag"`
}

// PositionListQuery represents the query parameters for listing positions.
type PositionListQuery struct {
	GroupBy     string `form:"group_by,default=account" binding:"omitempty,position_grouping"`
	StrategyTag string `form:"strategy_tag"`
}

func (r TradeRequest) toInput() services.TradeInput {
	return services.TradeInput{
		Date:        r.Date,
		Account:     r.Account,
		StrategyTag: r.StrategyTag,
		Symbol:      r.Symbol,
		Side:        models.TradeSide(r.Side),
		Quantity:    r.Quantity,
		Price:       r.Price,
	}
}

// CreateTrade records a manual trade
// @Summary     Create a trade
// @Description Record a trade in the ledger; positions are recomputed from the full history
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TradeRequest true "Trade details"
// @Success     201 {object} models.Trade "Trade created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades [post]
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.tradeService.CreateTrade(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trade": trade})
}

// GetTrades lists the user's trades
// @Summary     List trades
// @Description Get a paginated, filtered list of the user's trades, newest first
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Param       account query string false "Account filter"
// @Param       symbol query string false "Symbol filter"
// @Param       strategy_tag query string false "Strategy tag filter"
// @Success     200 {object} pagination.PageResponse[models.Trade] "Trades"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades [get]
func (h *TradeHandler) GetTrades(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query TradeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tradeService.GetUserTrades(userID, query.PageRequest, services.TradeFilter{
		FromDate:    query.From,
		ToDate:      query.To,
		Account:     query.Account,
		Symbol:      query.Symbol,
		StrategyTag: query.StrategyTag,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrade returns a single trade
// @Summary     Get a trade
// @Description Get one trade by ID
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trade ID"
// @Success     200 {object} models.Trade "Trade"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/{id} [get]
func (h *TradeHandler) GetTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trade, err := h.tradeService.GetTradeByID(userID, tradeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade": trade})
}

// UpdateTrade replaces a trade's content
// @Summary     Update a trade
// @Description Replace a trade record; positions are recomputed from the edited history
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trade ID"
// @Param       request body TradeRequest true "Trade details"
// @Success     200 {object} models.Trade "Updated trade"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/{id} [put]
func (h *TradeHandler) UpdateTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.tradeService.UpdateTrade(userID, tradeID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade": trade})
}

// DeleteTrade removes a trade
// @Summary     Delete a trade
// @Description Remove a trade from the ledger; positions are recomputed
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trade ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/{id} [delete]
func (h *TradeHandler) DeleteTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tradeService.DeleteTrade(userID, tradeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trade deleted"})
}

// ImportTrades imports a broker CSV
// @Summary     Import trades from CSV
// @Description Upload a broker CSV export; rows are interpreted, deduplicated, and folded into positions
// @Tags        trades
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV file"
// @Success     200 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/import [post]
func (h *TradeHandler) ImportTrades(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "a CSV file is required"))
		return
	}
	if fileHeader.Size > maxImportSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file exceeds the 10MB import limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	result, err := h.tradeService.ImportCSV(userID, file, fileHeader.Filename)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"import": result})
}

// GetPositions returns the user's derived positions
// @Summary     List positions
// @Description Get derived positions grouped by account (default), symbol, or strategy
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       group_by query string false "Grouping: account, symbol, or strategy"
// @Param       strategy_tag query string false "Strategy tag (required when group_by=strategy)"
// @Success     200 {object} map[string]interface{} "Positions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions [get]
func (h *TradeHandler) GetPositions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query PositionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "group_by must be account, symbol, or strategy"))
		return
	}

	groupBy := query.GroupBy
	switch groupBy {
	case "symbol":
		positions, err := h.tradeService.GetConsolidatedPositions(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions, "group_by": groupBy})
	case "strategy":
		positions, err := h.tradeService.GetStrategyPositions(userID, query.StrategyTag)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions, "group_by": groupBy})
	default:
		positions, err := h.tradeService.GetPositions(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions, "group_by": "account"})
	}
}
