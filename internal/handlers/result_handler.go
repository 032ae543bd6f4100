package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"bingo-service/internal/dto"
	"bingo-service/internal/middleware"
	"bingo-service/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
)

// ResultLister reads finished bingo games. *repository.ResultRepository
// satisfies it.
type ResultLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.BingoResult, error)
}

type ResultHandler struct {
	results ResultLister
}

func NewResultHandler(results ResultLister) *ResultHandler {
	return &ResultHandler{results: results}
}

// List godoc
// @Summary List finished bingo games
// @Description Most recent single-player results of the current user
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} dto.ResultsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultResultLimit)))
	if err != nil || limit < 1 || limit > maxResultLimit {
		dto.JsonError(c, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results, err := h.results.ListByUser(ctx, c.GetString(middleware.ContextUserID), limit)
	if err != nil {
		log.Printf("Failed to list results: %v", err)
		dto.JsonError(c, http.StatusInternalServerError, "Failed to list results")
		return
	}

	resp := dto.ResultsResponse{Results: make([]dto.ResultDTO, len(results)), Total: len(results)}
	for i, r := range results {
		resp.Results[i] = dto.ResultDTO{
			ID:            r.ID,
			CardName:      r.CardName,
			Profile:       r.Profile,
			Timed:         r.Timed,
			Outcome:       r.Outcome,
			Matched:       r.Matched,
			Total:         r.Total,
			PlayersUsed:   r.PlayersUsed,
			WrongAttempts: r.WrongAttempts,
			WildcardUsed:  r.WildcardUsed,
			FinishedAt:    r.FinishedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}
