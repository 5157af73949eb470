package handlers

import (
	"encoding/json"
	"net/http"

	"ecolearn/internal/service"
)

// PlacementHandler serves the grade placement test endpoints
type PlacementHandler struct {
	placementService *service.PlacementService
}

// NewPlacementHandler creates a new placement handler
func NewPlacementHandler(placementService *service.PlacementService) *PlacementHandler {
	return &PlacementHandler{placementService: placementService}
}

// Status handles GET /api/level-test/{level}
func (h *PlacementHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	test, err := h.placementService.Status(user.ID, r.PathValue("level"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

// Submit handles POST /api/level-test
func (h *PlacementHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		Level    string          `json:"level"`
		Score    int64           `json:"score"`
		Category string          `json:"category"`
		Answers  json.RawMessage `json:"answers"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	test, err := h.placementService.Submit(user.ID, in.Level, in.Score, in.Category, in.Answers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}
