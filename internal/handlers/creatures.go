package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokestudy/battle-api/internal/logic"
	"github.com/pokestudy/battle-api/internal/models"
)

// GetCreature returns one roster entry
// @Summary Get Creature
// @Tags Creatures
// @Produce json
// @Param name path string true "Creature name (case-insensitive)"
// @Success 200 {object} models.Creature
// @Failure 404 {object} map[string]string "Not Found"
// @Router /creatures/{name} [get]
func (h *Handler) GetCreature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.errorResponse(w, http.StatusBadRequest, "Name is required")
		return
	}

	c, err := h.prediction.GetCreature(r.Context(), name)
	if err != nil {
		h.lookupError(w, err, "Failed to get creature")
		return
	}
	h.jsonResponse(w, http.StatusOK, c)
}

// CompareCreatures lines up two creatures stat by stat
// @Summary Compare Creatures
// @Tags Creatures
// @Produce json
// @Param first query string true "First creature"
// @Param second query string true "Second creature"
// @Success 200 {object} models.StatComparison
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /creatures/compare [get]
func (h *Handler) CompareCreatures(w http.ResponseWriter, r *http.Request) {
	req := models.CompareRequest{
		First:  r.URL.Query().Get("first"),
		Second: r.URL.Query().Get("second"),
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "first and second are required")
		return
	}

	cmp, err := h.prediction.CompareCreatures(r.Context(), req.First, req.Second)
	if err != nil {
		h.lookupError(w, err, "Failed to compare creatures")
		return
	}
	h.jsonResponse(w, http.StatusOK, cmp)
}

func (h *Handler) lookupError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, logic.ErrCreatureNotFound) {
		h.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Errorw(msg, "error", err)
	h.errorResponse(w, http.StatusInternalServerError, msg)
}
