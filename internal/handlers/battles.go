package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pokestudy/battle-api/internal/models"
)

// PredictBattle forecasts the winner of a hypothetical battle
// @Summary Predict Battle Outcome
// @Description Accepts ?first=&second= on GET or a JSON body on POST. Names are case-insensitive.
// @Tags Battles
// @Accept json
// @Produce json
// @Param first query string false "First creature"
// @Param second query string false "Second creature"
// @Param body body models.PredictRequest false "Pair (POST)"
// @Success 200 {object} models.BattlePrediction
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} models.BattlePrediction "One or both not found"
// @Router /battles/predict [get]
// @Router /battles/predict [post]
func (h *Handler) PredictBattle(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		req.First = r.URL.Query().Get("first")
		req.Second = r.URL.Query().Get("second")
	}

	if err := h.validate.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "first and second are required")
		return
	}

	pred, err := h.prediction.PredictBattle(r.Context(), req.First, req.Second)
	if err != nil {
		h.logger.Errorw("Failed to predict battle", "error", err, "first", req.First, "second", req.Second)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to predict battle")
		return
	}

	status := http.StatusOK
	if !pred.Found {
		status = http.StatusNotFound
	}
	h.jsonResponse(w, status, pred)
}

// GetModel describes the serving model
// @Summary Model Info
// @Tags Battles
// @Produce json
// @Success 200 {object} models.ModelInfo
// @Router /model [get]
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	info, err := h.prediction.ModelInfo(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to get model info", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Model not available")
		return
	}
	h.jsonResponse(w, http.StatusOK, info)
}

// Retrain reloads both datasets and trains a new model
// @Summary Retrain Model
// @Tags Admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} models.ModelInfo
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/retrain [post]
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	info, err := h.prediction.Retrain(r.Context())
	if err != nil {
		h.logger.Errorw("Retrain failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Retrain failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, info)
}
