package handlers

import (
	"log"
	"net/http"

	"bingo-service/internal/catalog"
	"bingo-service/internal/dto"

	"github.com/gin-gonic/gin"
)

type CardHandler struct {
	catalog *catalog.Catalog
	sources []catalog.Source
}

func NewCardHandler(cards *catalog.Catalog, sources ...catalog.Source) *CardHandler {
	return &CardHandler{
		catalog: cards,
		sources: sources,
	}
}

// List godoc
// @Summary List bingo cards
// @Tags cards
// @Produce json
// @Success 200 {object} dto.CardsResponse
// @Router /cards [get]
func (h *CardHandler) List(c *gin.Context) {
	cards := h.catalog.All()
	resp := dto.CardsResponse{
		Cards: make([]dto.CardSummary, 0, len(cards)),
		Total: len(cards),
	}
	for _, card := range cards {
		names := make([]string, len(card.Categories))
		for i, category := range card.Categories {
			names[i] = category.Name
		}
		resp.Cards = append(resp.Cards, dto.CardSummary{
			Name:       card.Name,
			Categories: names,
			Players:    len(card.Players),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Reload re-reads every card source and swaps the catalog. The old set
// stays live when any source fails.
// @Summary Reload bingo cards
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Router /cards/reload [post]
func (h *CardHandler) Reload(c *gin.Context) {
	if len(h.sources) == 0 {
		dto.JsonError(c, http.StatusNotImplemented, "No card sources configured")
		return
	}

	cards, err := catalog.LoadAll(c.Request.Context(), h.sources...)
	if err == nil {
		err = h.catalog.Reload(cards)
	}
	if err != nil {
		log.Printf("Failed to reload cards: %v", err)
		dto.JsonError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	log.Printf("Reloaded %d cards", len(cards))
	c.JSON(http.StatusOK, gin.H{"total": len(cards), "message": "Cards reloaded"})
}
