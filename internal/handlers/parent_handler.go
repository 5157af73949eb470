package handlers

import (
	"net/http"

	"ecolearn/internal/service"
)

// ParentHandler serves guardian endpoints for linked children
type ParentHandler struct {
	parentService *service.ParentService
}

// NewParentHandler creates a new parent handler
func NewParentHandler(parentService *service.ParentService) *ParentHandler {
	return &ParentHandler{parentService: parentService}
}

// LinkChild handles POST /api/parent/children
func (h *ParentHandler) LinkChild(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		Identifier string `json:"identifier"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Identifier == "" {
		respondError(w, http.StatusBadRequest, "identifier is required", nil)
		return
	}

	child, err := h.parentService.LinkChild(user.ID, in.Identifier)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

// Children handles GET /api/parent/children
func (h *ParentHandler) Children(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	children, err := h.parentService.Children(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// Dashboard handles GET /api/parent/dashboard
func (h *ParentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	overviews, err := h.parentService.Dashboard(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overviews)
}

// ChildProgress handles GET /api/parent/children/{id}/progress
func (h *ParentHandler) ChildProgress(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	childID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid child id", nil)
		return
	}
	records, err := h.parentService.ChildProgress(user.ID, childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
