package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
)

type BoardHandler struct{}

func NewBoardHandler() *BoardHandler {
	return &BoardHandler{}
}

type CreateBoardRequest struct {
	Title string `json:"title"`
}

type UpdateBoardRequest struct {
	Title *string `json:"title,omitempty"`
}

type ReorderListsRequest struct {
	ListIDs []uuid.UUID `json:"list_ids"`
}

type ReorderCardsRequest struct {
	Placements []struct {
		CardID   uuid.UUID `json:"card_id"`
		ListID   uuid.UUID `json:"list_id"`
		Position int       `json:"position"`
	} `json:"placements"`
}

// List handles GET /api/v1/boards
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	boards, err := scope.DAL(tc).Boards().List(r.Context(), dal.BoardFilter{
		TitleContains: r.URL.Query().Get("title"),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	// Only boards the caller can actually see: a board without a
	// membership row is invisible regardless of org role.
	visible := boards[:0]
	for _, board := range boards {
		if scope.Perms.HasBoardPermission(r.Context(), tc, board.ID, models.PermBoardView) {
			visible = append(visible, board)
		}
	}

	// Paginate after the visibility filter so page boundaries never leak
	// how many boards were hidden.
	params := dto.PaginationParams{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	params.Normalize()

	total := int64(len(visible))
	start := params.Offset()
	if start > len(visible) {
		start = len(visible)
	}
	end := start + params.PerPage
	if end > len(visible) {
		end = len(visible)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       visible[start:end],
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: int((total + int64(params.PerPage) - 1) / int64(params.PerPage)),
	})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// Create handles POST /api/v1/boards
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if err := tenancy.RequireRole(tc, models.OrgRoleMember); err != nil {
		respondError(w, err)
		return
	}

	var req CreateBoardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Title is required"})
		return
	}

	board, err := scope.DAL(tc).Boards().Create(r.Context(), dal.CreateBoardInput{Title: req.Title})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// Get handles GET /api/v1/boards/{id}
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	board, err := scope.DAL(tc).Boards().Get(r.Context(), boardID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Update handles PUT /api/v1/boards/{id}
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardEdit); err != nil {
		respondError(w, err)
		return
	}

	var req UpdateBoardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	board, err := scope.DAL(tc).Boards().Update(r.Context(), boardID, dal.UpdateBoardInput{Title: req.Title})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Delete handles DELETE /api/v1/boards/{id}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermBoardDelete); err != nil {
		respondError(w, err)
		return
	}

	if err := scope.DAL(tc).Boards().Delete(r.Context(), boardID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Board deleted"})
}

// ReorderLists handles PUT /api/v1/boards/{id}/lists/reorder
func (h *BoardHandler) ReorderLists(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermListReorder); err != nil {
		respondError(w, err)
		return
	}

	var req ReorderListsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := scope.DAL(tc).Boards().ReorderLists(r.Context(), boardID, req.ListIDs); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Lists reordered"})
}

// ReorderCards handles PUT /api/v1/boards/{id}/cards/reorder
func (h *BoardHandler) ReorderCards(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermCardReorder); err != nil {
		respondError(w, err)
		return
	}

	var req ReorderCardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	placements := make([]dal.CardPlacement, len(req.Placements))
	for i, p := range req.Placements {
		placements[i] = dal.CardPlacement{CardID: p.CardID, ListID: p.ListID, Position: p.Position}
	}

	if err := scope.DAL(tc).Cards().Reorder(r.Context(), boardID, placements); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Cards reordered"})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
