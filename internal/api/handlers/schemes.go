package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
)

// SchemeHandler manages permission schemes. Scheme administration is an
// org-admin surface; assigning a scheme to a board additionally needs the
// board's manage_schemes permission.
type SchemeHandler struct{}

func NewSchemeHandler() *SchemeHandler {
	return &SchemeHandler{}
}

type CreateSchemeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SchemeEntriesRequest struct {
	Entries []struct {
		Role       models.BoardRole  `json:"role"`
		Permission models.Permission `json:"permission"`
		Granted    bool              `json:"granted"`
	} `json:"entries"`
}

type AssignSchemeRequest struct {
	SchemeID *uuid.UUID `json:"scheme_id"` // null clears the assignment
}

func (h *SchemeHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*middleware.Scope, *tenancy.TenantContext, bool) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return nil, nil, false
	}
	if err := tenancy.RequireRole(tc, models.OrgRoleAdmin); err != nil {
		respondError(w, err)
		return nil, nil, false
	}
	return scope, tc, true
}

// List handles GET /api/v1/schemes
func (h *SchemeHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	schemes, err := scope.DAL(tc).Schemes().List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemes)
}

// Get handles GET /api/v1/schemes/{id}
func (h *SchemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	schemeID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	scheme, err := scope.DAL(tc).Schemes().Get(r.Context(), schemeID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scheme)
}

// Create handles POST /api/v1/schemes
func (h *SchemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req CreateSchemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Name is required"})
		return
	}
	scheme, err := scope.DAL(tc).Schemes().Create(r.Context(), dal.CreateSchemeInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheme)
}

// Delete handles DELETE /api/v1/schemes/{id}
func (h *SchemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	schemeID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := scope.DAL(tc).Schemes().Delete(r.Context(), schemeID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Scheme deleted"})
}

// UpsertEntries handles PUT /api/v1/schemes/{id}/entries
func (h *SchemeHandler) UpsertEntries(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	schemeID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req SchemeEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entries := make([]dal.SchemeEntryInput, len(req.Entries))
	for i, e := range req.Entries {
		if !e.Role.Valid() || !e.Permission.Valid() {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role or permission"})
			return
		}
		entries[i] = dal.SchemeEntryInput{Role: e.Role, Permission: e.Permission, Granted: e.Granted}
	}
	if err := scope.DAL(tc).Schemes().UpsertEntries(r.Context(), schemeID, entries); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Entries updated"})
}

// SetDefault handles POST /api/v1/schemes/{id}/default
func (h *SchemeHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	scope, tc, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	schemeID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := scope.DAL(tc).Schemes().SetDefault(r.Context(), schemeID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Default scheme set"})
}

// AssignToBoard handles PUT /api/v1/boards/{id}/scheme
func (h *SchemeHandler) AssignToBoard(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	boardID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardManageSchemes); err != nil {
		respondError(w, err)
		return
	}

	var req AssignSchemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := scope.DAL(tc).Schemes().AssignToBoard(r.Context(), boardID, req.SchemeID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Scheme assigned"})
}

// AssignToMember handles PUT /api/v1/boards/{id}/members/{userID}/scheme
func (h *SchemeHandler) AssignToMember(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	boardID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := parseID(w, r, "userID")
	if !ok {
		return
	}
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardManageSchemes); err != nil {
		respondError(w, err)
		return
	}

	var req AssignSchemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := scope.DAL(tc).Schemes().AssignToMember(r.Context(), boardID, userID, req.SchemeID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member scheme assigned"})
}
