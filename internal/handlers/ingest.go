package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pokestudy/battle-api/internal/models"
)

// maxReportedErrors caps the per-line errors echoed back to the caller
const maxReportedErrors = 20

// IngestCombats handles POST /api/v1/ingest/combats
// @Summary Ingest Combat Records
// @Description Accepts newline-separated JSON combat records. Numeric fields may be quoted.
// @Tags Ingestion
// @Accept json
// @Produce json
// @Security AdminToken
// @Param body body []models.CombatPayload true "Combats"
// @Success 202 {object} models.IngestResponse "Accepted"
// @Failure 413 {object} map[string]string "Too Large"
// @Failure 503 {object} map[string]string "Ingestion disabled"
// @Router /ingest/combats [post]
func (h *Handler) IngestCombats(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Combat ingestion is not configured")
		return
	}

	// Limit request body to 1MB to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	var (
		resp     models.IngestResponse
		received = time.Now().UTC()
		lineNum  = 0
	)
	reject := func(msg string) {
		resp.Rejected++
		if len(resp.Errors) < maxReportedErrors {
			resp.Errors = append(resp.Errors, fmt.Sprintf("line %d: %s", lineNum, msg))
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxBodySize+1)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if resp.Shed > 0 {
			// queue is full, the rest of the batch is dropped
			resp.Shed++
			continue
		}

		var payload models.CombatPayload
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			reject("invalid JSON")
			continue
		}
		if err := h.validate.Struct(&payload); err != nil {
			reject(err.Error())
			continue
		}
		if payload.Winner != payload.First && payload.Winner != payload.Second {
			reject("winner must be one of the participants")
			continue
		}

		if !h.pool.Enqueue(models.IngestedCombat{
			CombatRecord: payload.Record(),
			Source:       payload.Source,
			ReceivedAt:   received,
		}) {
			h.logger.Warn("Worker pool queue full, dropping remaining combats in batch")
			resp.Shed++
			continue
		}
		resp.Accepted++
	}
	if err := scanner.Err(); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	h.logger.Infow("Combats ingested",
		"accepted", resp.Accepted,
		"rejected", resp.Rejected,
		"shed", resp.Shed,
	)
	h.jsonResponse(w, http.StatusAccepted, resp)
}
