package handlers_test

import (
	"net/http"
	"testing"

	"github.com/hugh/boardstack/internal/api/handlers"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_SchemeAdministrationNeedsOrgAdmin(t *testing.T) {
	h := newHarness(t)
	_, memberToken := h.memberToken(t, models.OrgRoleMember, nil)

	rr := h.do(t, http.MethodPost, "/api/v1/schemes",
		handlers.CreateSchemeRequest{Name: "strict"}, memberToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, http.MethodGet, "/api/v1/schemes", nil, memberToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_SchemeLifecycle(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodPost, "/api/v1/schemes",
		handlers.CreateSchemeRequest{Name: "strict", Description: "locked down"}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var scheme models.PermissionScheme
	testutil.ParseJSONResponse(t, rr, &scheme)

	rr = h.do(t, http.MethodPut, "/api/v1/schemes/"+scheme.ID.String()+"/entries",
		map[string]interface{}{
			"entries": []map[string]interface{}{
				{"role": "viewer", "permission": "card:create", "granted": true},
			},
		}, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	// Unknown permission tokens are rejected at the edge.
	rr = h.do(t, http.MethodPut, "/api/v1/schemes/"+scheme.ID.String()+"/entries",
		map[string]interface{}{
			"entries": []map[string]interface{}{
				{"role": "viewer", "permission": "card:levitate", "granted": true},
			},
		}, h.ownerToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, http.MethodPost, "/api/v1/schemes/"+scheme.ID.String()+"/default", nil, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	// With the scheme org-default, a viewer on the board gains card:create.
	_, viewerToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleViewer))
	list := testutil.CreateTestList(t, h.db, h.board, "Backlog", 0)
	rr = h.do(t, http.MethodPost, "/api/v1/boards/"+h.board.ID.String()+"/cards",
		handlers.CreateCardRequest{ListID: list.ID, Title: "Allowed now"}, viewerToken)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = h.do(t, http.MethodDelete, "/api/v1/schemes/"+scheme.ID.String(), nil, h.ownerToken)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPI_AssignSchemeToBoard(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodPost, "/api/v1/schemes",
		handlers.CreateSchemeRequest{Name: "board scheme"}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var scheme models.PermissionScheme
	testutil.ParseJSONResponse(t, rr, &scheme)

	rr = h.do(t, http.MethodPut, "/api/v1/boards/"+h.board.ID.String()+"/scheme",
		handlers.AssignSchemeRequest{SchemeID: &scheme.ID}, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var assigned models.Board
	require.NoError(t, h.db.Where("id = ?", h.board.ID).First(&assigned).Error)
	require.NotNil(t, assigned.SchemeID)
	assert.Equal(t, scheme.ID, *assigned.SchemeID)

	// Clearing works via an explicit null.
	rr = h.do(t, http.MethodPut, "/api/v1/boards/"+h.board.ID.String()+"/scheme",
		handlers.AssignSchemeRequest{SchemeID: nil}, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var cleared models.Board
	require.NoError(t, h.db.Where("id = ?", h.board.ID).First(&cleared).Error)
	assert.Nil(t, cleared.SchemeID)
}
