package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/database/models"
)

type MemberHandler struct{}

func NewMemberHandler() *MemberHandler {
	return &MemberHandler{}
}

type AddMemberRequest struct {
	UserID uuid.UUID        `json:"user_id"`
	Role   models.BoardRole `json:"role"`
}

type UpdateMemberRequest struct {
	Role models.BoardRole `json:"role"`
}

// List handles GET /api/v1/boards/{id}/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardView); err != nil {
		respondError(w, err)
		return
	}

	members, err := scope.DAL(tc).Members().ListByBoard(r.Context(), boardID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Add handles POST /api/v1/boards/{id}/members
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
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
	actor, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardManageMembers)
	if err != nil {
		respondError(w, err)
		return
	}

	var req AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "user_id is required"})
		return
	}
	if !req.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
		return
	}

	membership, err := scope.DAL(tc).Members().Add(r.Context(), boardID, req.UserID, req.Role, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

// UpdateRole handles PUT /api/v1/boards/{id}/members/{userID}
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
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
	actor, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardManageMembers)
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpdateMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
		return
	}

	membership, err := scope.DAL(tc).Members().UpdateRole(r.Context(), boardID, userID, req.Role, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

// Remove handles DELETE /api/v1/boards/{id}/members/{userID}
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
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
	actor, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardManageMembers)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := scope.DAL(tc).Members().Remove(r.Context(), boardID, userID, actor); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}
