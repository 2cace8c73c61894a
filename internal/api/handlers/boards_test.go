package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api"
	"github.com/hugh/boardstack/internal/api/handlers"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// harness runs the full router against an in-memory database, with one
// org (owner + board) plus a second org to attack across the boundary.
type harness struct {
	db     *gorm.DB
	router http.Handler

	org        *models.Organization
	owner      *models.User
	board      *models.Board
	ownerToken string

	foreignOrg   *models.Organization
	foreignBoard *models.Board
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.SetupTestDB(t)
	jwtService := testutil.CreateTestJWTService()

	org := testutil.CreateTestOrg(t, db)
	owner := testutil.CreateTestUser(t, db, org, models.OrgRoleOwner)
	board := testutil.CreateTestBoard(t, db, org, owner)

	foreignOrg := testutil.CreateTestOrg(t, db)
	foreignOwner := testutil.CreateTestUser(t, db, foreignOrg, models.OrgRoleOwner)
	foreignBoard := testutil.CreateTestBoard(t, db, foreignOrg, foreignOwner)

	router := api.NewRouter(api.RouterConfig{
		DB:         db,
		Logger:     testutil.NewTestLogger(),
		JWTService: jwtService,
		Identity:   testutil.NewFakeIdentity(),
	})

	return &harness{
		db:           db,
		router:       router,
		org:          org,
		owner:        owner,
		board:        board,
		ownerToken:   testutil.GenerateTestToken(t, jwtService, owner, org, "owner"),
		foreignOrg:   foreignOrg,
		foreignBoard: foreignBoard,
	}
}

// memberToken creates a user in the harness org with the given board role
// and returns their token. A nil board role means org membership only.
func (h *harness) memberToken(t *testing.T, orgRole models.OrgRole, boardRole *models.BoardRole) (*models.User, string) {
	t.Helper()
	user := testutil.CreateTestUser(t, h.db, h.org, orgRole)
	if boardRole != nil {
		testutil.AddBoardMember(t, h.db, h.board, user, *boardRole)
	}
	jwtService := testutil.CreateTestJWTService()
	return user, testutil.GenerateTestToken(t, jwtService, user, h.org, string(orgRole))
}

func (h *harness) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.AuthenticatedRequest(t, method, path, body, token)
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func boardRole(r models.BoardRole) *models.BoardRole { return &r }

func TestAPI_RequiresToken(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/api/v1/boards", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(t, http.MethodGet, "/api/v1/boards", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_CreateBoard(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodPost, "/api/v1/boards",
		handlers.CreateBoardRequest{Title: "Roadmap"}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var board models.Board
	testutil.ParseJSONResponse(t, rr, &board)
	assert.Equal(t, "Roadmap", board.Title)
	assert.Equal(t, h.org.ID, board.OrganizationID)

	rr = h.do(t, http.MethodPost, "/api/v1/boards",
		handlers.CreateBoardRequest{}, h.ownerToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_CreateBoardNeedsOrgMember(t *testing.T) {
	h := newHarness(t)
	_, guestToken := h.memberToken(t, models.OrgRoleGuest, nil)

	rr := h.do(t, http.MethodPost, "/api/v1/boards",
		handlers.CreateBoardRequest{Title: "Nope"}, guestToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_GetBoard(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/api/v1/boards/"+h.board.ID.String(), nil, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	// Foreign and nonexistent boards answer identically.
	rr = h.do(t, http.MethodGet, "/api/v1/boards/"+h.foreignBoard.ID.String(), nil, h.ownerToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(t, http.MethodGet, "/api/v1/boards/"+uuid.NewString(), nil, h.ownerToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(t, http.MethodGet, "/api/v1/boards/not-a-uuid", nil, h.ownerToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_BoardInvisibleWithoutMembership(t *testing.T) {
	h := newHarness(t)
	_, token := h.memberToken(t, models.OrgRoleMember, nil)

	// Same org, no board membership: the board does not exist for them.
	rr := h.do(t, http.MethodGet, "/api/v1/boards/"+h.board.ID.String(), nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(t, http.MethodGet, "/api/v1/boards", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Data  []models.Board `json:"data"`
		Total int64          `json:"total"`
	}
	testutil.ParseJSONResponse(t, rr, &page)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Total)
}

func TestAPI_ListBoardsPaginated(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		rr := h.do(t, http.MethodPost, "/api/v1/boards",
			handlers.CreateBoardRequest{Title: "Sprint"}, h.ownerToken)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := h.do(t, http.MethodGet, "/api/v1/boards?page=2&per_page=2", nil, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var page struct {
		Data       []models.Board `json:"data"`
		Total      int64          `json:"total"`
		Page       int            `json:"page"`
		TotalPages int            `json:"total_pages"`
	}
	testutil.ParseJSONResponse(t, rr, &page)
	assert.Equal(t, int64(4), page.Total) // three created plus the fixture board
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Data, 2)
}

func TestAPI_UpdateBoardPermission(t *testing.T) {
	h := newHarness(t)
	_, viewerToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleViewer))

	title := "Renamed"
	rr := h.do(t, http.MethodPut, "/api/v1/boards/"+h.board.ID.String(),
		handlers.UpdateBoardRequest{Title: &title}, viewerToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, http.MethodPut, "/api/v1/boards/"+h.board.ID.String(),
		handlers.UpdateBoardRequest{Title: &title}, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var board models.Board
	testutil.ParseJSONResponse(t, rr, &board)
	assert.Equal(t, "Renamed", board.Title)
}

func TestAPI_DeleteBoardOwnersOnly(t *testing.T) {
	h := newHarness(t)
	_, adminToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleAdmin))

	// board:delete is reserved to OWNER in the default matrix.
	rr := h.do(t, http.MethodDelete, "/api/v1/boards/"+h.board.ID.String(), nil, adminToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, http.MethodDelete, "/api/v1/boards/"+h.board.ID.String(), nil, h.ownerToken)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPI_ListsAndCards(t *testing.T) {
	h := newHarness(t)
	base := "/api/v1/boards/" + h.board.ID.String()

	rr := h.do(t, http.MethodPost, base+"/lists", handlers.CreateListRequest{Title: "Backlog"}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var list models.List
	testutil.ParseJSONResponse(t, rr, &list)

	rr = h.do(t, http.MethodPost, base+"/cards",
		handlers.CreateCardRequest{ListID: list.ID, Title: "Task"}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var card models.Card
	testutil.ParseJSONResponse(t, rr, &card)
	assert.Equal(t, h.owner.ID, card.CreatedBy)

	rr = h.do(t, http.MethodGet, base+"/cards", nil, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var cards []models.Card
	testutil.ParseJSONResponse(t, rr, &cards)
	assert.Len(t, cards, 1)
}

func TestAPI_ViewerCannotCreateCards(t *testing.T) {
	h := newHarness(t)
	_, viewerToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleViewer))

	list := testutil.CreateTestList(t, h.db, h.board, "Backlog", 0)

	rr := h.do(t, http.MethodPost, "/api/v1/boards/"+h.board.ID.String()+"/cards",
		handlers.CreateCardRequest{ListID: list.ID, Title: "Nope"}, viewerToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_ViewerCanComment(t *testing.T) {
	h := newHarness(t)
	viewer, viewerToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleViewer))

	list := testutil.CreateTestList(t, h.db, h.board, "Backlog", 0)
	card := testutil.CreateTestCard(t, h.db, list, "Task", 0)

	rr := h.do(t, http.MethodPost, "/api/v1/cards/"+card.ID.String()+"/comments",
		handlers.CreateCommentRequest{Body: "looks good"}, viewerToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var comment models.Comment
	testutil.ParseJSONResponse(t, rr, &comment)
	assert.Equal(t, viewer.ID, comment.AuthorID)
}

func TestAPI_AddMember(t *testing.T) {
	h := newHarness(t)
	target, _ := h.memberToken(t, models.OrgRoleMember, nil)
	path := "/api/v1/boards/" + h.board.ID.String() + "/members"

	rr := h.do(t, http.MethodPost, path,
		handlers.AddMemberRequest{UserID: target.ID, Role: models.BoardRoleMember}, h.ownerToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = h.do(t, http.MethodPost, path,
		handlers.AddMemberRequest{UserID: target.ID, Role: models.BoardRoleMember}, h.ownerToken)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(t, http.MethodPost, path,
		handlers.AddMemberRequest{UserID: target.ID, Role: "SUPERUSER"}, h.ownerToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_MemberManagementNeedsPermission(t *testing.T) {
	h := newHarness(t)
	_, memberToken := h.memberToken(t, models.OrgRoleMember, boardRole(models.BoardRoleMember))
	target, _ := h.memberToken(t, models.OrgRoleMember, nil)

	rr := h.do(t, http.MethodPost, "/api/v1/boards/"+h.board.ID.String()+"/members",
		handlers.AddMemberRequest{UserID: target.ID, Role: models.BoardRoleViewer}, memberToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_ReorderListsRejectsForeignIDs(t *testing.T) {
	h := newHarness(t)

	l0 := testutil.CreateTestList(t, h.db, h.board, "Backlog", 0)
	foreign := testutil.CreateTestList(t, h.db, h.foreignBoard, "Foreign", 0)

	rr := h.do(t, http.MethodPut, "/api/v1/boards/"+h.board.ID.String()+"/lists/reorder",
		handlers.ReorderListsRequest{ListIDs: []uuid.UUID{l0.ID, foreign.ID}}, h.ownerToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Me(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/api/v1/me", nil, h.ownerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.MeResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, h.owner.ID.String(), resp.UserID)
	assert.Equal(t, h.org.ID.String(), resp.OrgID)
	assert.Equal(t, string(models.OrgRoleOwner), resp.OrgRole)
}

func TestAPI_Health(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
