package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/database/models"
)

// CardHandler covers lists, cards, comments and label assignments nested
// under a board. Every route resolves board permissions first and then
// goes through the DAL, which re-verifies ownership independently.
type CardHandler struct{}

func NewCardHandler() *CardHandler {
	return &CardHandler{}
}

type CreateListRequest struct {
	Title string `json:"title"`
}

type CreateCardRequest struct {
	ListID      uuid.UUID `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type UpdateCardRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ListID      *uuid.UUID `json:"list_id,omitempty"`
}

type CreateCommentRequest struct {
	Body string `json:"body"`
}

type CreateLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ListLists handles GET /api/v1/boards/{id}/lists
func (h *CardHandler) ListLists(w http.ResponseWriter, r *http.Request) {
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

	lists, err := scope.DAL(tc).Lists().ListByBoard(r.Context(), boardID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateList handles POST /api/v1/boards/{id}/lists
func (h *CardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermListCreate); err != nil {
		respondError(w, err)
		return
	}

	var req CreateListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Title is required"})
		return
	}

	list, err := scope.DAL(tc).Lists().Create(r.Context(), dal.CreateListInput{
		BoardID: boardID,
		Title:   req.Title,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// CreateCard handles POST /api/v1/boards/{id}/cards
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
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
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, boardID, models.PermCardCreate); err != nil {
		respondError(w, err)
		return
	}

	var req CreateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Title is required"})
		return
	}

	card, err := scope.DAL(tc).Cards().Create(r.Context(), dal.CreateCardInput{
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// ListCards handles GET /api/v1/boards/{id}/cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
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

	cards, err := scope.DAL(tc).Cards().ListByBoard(r.Context(), boardID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// boardForCard resolves a card's board for permission checks without
// leaking whether a foreign card exists.
func (h *CardHandler) requireCardPermission(w http.ResponseWriter, r *http.Request, perm models.Permission) (*middleware.Scope, *dal.DAL, uuid.UUID, bool) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return nil, nil, uuid.Nil, false
	}
	cardID, ok := parseID(w, r, "id")
	if !ok {
		return nil, nil, uuid.Nil, false
	}

	d := scope.DAL(tc)
	board, err := d.Cards().BoardOf(r.Context(), cardID)
	if err != nil {
		respondError(w, err)
		return nil, nil, uuid.Nil, false
	}
	if _, err := scope.Perms.RequireBoardPermission(r.Context(), tc, board.ID, perm); err != nil {
		respondError(w, err)
		return nil, nil, uuid.Nil, false
	}
	return scope, d, cardID, true
}

// UpdateCard handles PUT /api/v1/cards/{id}
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	_, d, cardID, ok := h.requireCardPermission(w, r, models.PermCardEdit)
	if !ok {
		return
	}

	var req UpdateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := d.Cards().Update(r.Context(), cardID, dal.UpdateCardInput{
		Title:       req.Title,
		Description: req.Description,
		ListID:      req.ListID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/v1/cards/{id}
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	_, d, cardID, ok := h.requireCardPermission(w, r, models.PermCardDelete)
	if !ok {
		return
	}
	if err := d.Cards().Delete(r.Context(), cardID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Card deleted"})
}

// CreateComment handles POST /api/v1/cards/{id}/comments
func (h *CardHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	_, d, cardID, ok := h.requireCardPermission(w, r, models.PermCommentCreate)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Body is required"})
		return
	}

	comment, err := d.Comments().Create(r.Context(), cardID, req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// AssignLabel handles PUT /api/v1/cards/{id}/labels/{labelID}
func (h *CardHandler) AssignLabel(w http.ResponseWriter, r *http.Request) {
	_, d, cardID, ok := h.requireCardPermission(w, r, models.PermLabelAssign)
	if !ok {
		return
	}
	labelID, ok := parseID(w, r, "labelID")
	if !ok {
		return
	}

	assignment, err := d.Labels().Assign(r.Context(), cardID, labelID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// UnassignLabel handles DELETE /api/v1/cards/{id}/labels/{labelID}
func (h *CardHandler) UnassignLabel(w http.ResponseWriter, r *http.Request) {
	_, d, cardID, ok := h.requireCardPermission(w, r, models.PermLabelAssign)
	if !ok {
		return
	}
	labelID, ok := parseID(w, r, "labelID")
	if !ok {
		return
	}

	if err := d.Labels().Unassign(r.Context(), cardID, labelID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Label removed"})
}
