package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/identity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.OrganizationMembership{},
		&models.Board{},
		&models.BoardMembership{},
		&models.List{},
		&models.Card{},
		&models.Comment{},
		&models.Label{},
		&models.CardLabel{},
		&models.PermissionScheme{},
		&models.PermissionSchemeEntry{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{ID: uuid.New()},
		Name: "Test Organization",
		Slug: "test-org-" + uuid.New().String()[:8],
		Plan: "free",
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateTestUser creates a user with an active membership in the org.
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization, role models.OrgRole) *models.User {
	t.Helper()

	suffix := uuid.New().String()[:8]
	user := &models.User{
		Base:       models.Base{ID: uuid.New()},
		ExternalID: "ext-" + suffix,
		Email:      "test-" + suffix + "@example.com",
		Name:       "Test User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	membership := &models.OrganizationMembership{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           role,
		Status:         models.MembershipActive,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test org membership: %v", err)
	}
	return user
}

// CreateTestBoard creates a board owned by the org, with the given user
// as its OWNER member.
func CreateTestBoard(t *testing.T, db *gorm.DB, org *models.Organization, owner *models.User) *models.Board {
	t.Helper()

	board := &models.Board{
		Base:           models.Base{ID: uuid.New()},
		OrganizationID: org.ID,
		Title:          "Test Board",
	}
	if err := db.Create(board).Error; err != nil {
		t.Fatalf("failed to create test board: %v", err)
	}
	AddBoardMember(t, db, board, owner, models.BoardRoleOwner)
	return board
}

// AddBoardMember adds a board membership row directly.
func AddBoardMember(t *testing.T, db *gorm.DB, board *models.Board, user *models.User, role models.BoardRole) *models.BoardMembership {
	t.Helper()

	membership := &models.BoardMembership{
		Base:           models.Base{ID: uuid.New()},
		BoardID:        board.ID,
		UserID:         user.ID,
		OrganizationID: board.OrganizationID,
		Role:           role,
		JoinedAt:       time.Now(),
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test board membership: %v", err)
	}
	return membership
}

// CreateTestList creates a list on a board.
func CreateTestList(t *testing.T, db *gorm.DB, board *models.Board, title string, position int) *models.List {
	t.Helper()

	list := &models.List{
		Base:     models.Base{ID: uuid.New()},
		BoardID:  board.ID,
		Title:    title,
		Position: position,
	}
	if err := db.Create(list).Error; err != nil {
		t.Fatalf("failed to create test list: %v", err)
	}
	return list
}

// CreateTestCard creates a card on a list.
func CreateTestCard(t *testing.T, db *gorm.DB, list *models.List, title string, position int) *models.Card {
	t.Helper()

	card := &models.Card{
		Base:     models.Base{ID: uuid.New()},
		ListID:   list.ID,
		Title:    title,
		Position: position,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}
	return card
}

// CreateTestLabel creates a label on a board.
func CreateTestLabel(t *testing.T, db *gorm.DB, board *models.Board, name string) *models.Label {
	t.Helper()

	label := &models.Label{
		Base:    models.Base{ID: uuid.New()},
		BoardID: board.ID,
		Name:    name,
		Color:   "#cccccc",
	}
	if err := db.Create(label).Error; err != nil {
		t.Fatalf("failed to create test label: %v", err)
	}
	return label
}

// CreateTestScheme creates a permission scheme with entries.
func CreateTestScheme(t *testing.T, db *gorm.DB, org *models.Organization, name string, entries ...models.PermissionSchemeEntry) *models.PermissionScheme {
	t.Helper()

	scheme := &models.PermissionScheme{
		Base:           models.Base{ID: uuid.New()},
		OrganizationID: org.ID,
		Name:           name,
	}
	if err := db.Create(scheme).Error; err != nil {
		t.Fatalf("failed to create test scheme: %v", err)
	}
	for i := range entries {
		entries[i].SchemeID = scheme.ID
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("failed to create test scheme entry: %v", err)
		}
	}
	return scheme
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing")
}

// GenerateTestToken mints an identity assertion for the given user/org.
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User, org *models.Organization, roleClaim string) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ExternalID, org.ID, roleClaim, 24*time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// FakeIdentity is an in-memory identity provider.
type FakeIdentity struct {
	Profiles map[string]*identity.Profile
	Calls    int
}

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{Profiles: make(map[string]*identity.Profile)}
}

func (f *FakeIdentity) LookupUser(ctx context.Context, externalID string) (*identity.Profile, error) {
	f.Calls++
	if p, ok := f.Profiles[externalID]; ok {
		return p, nil
	}
	return nil, identity.ErrProfileNotFound
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestSetup holds the common test dependencies: one org, one owner-level
// user with a board they own, and a valid token.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Identity   *FakeIdentity
	Org        *models.Organization
	User       *models.User
	Board      *models.Board
	Token      string
}

// NewTestContext creates a complete test setup.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org, models.OrgRoleOwner)
	board := CreateTestBoard(t, db, org, user)
	token := GenerateTestToken(t, jwtService, user, org, "owner")

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Identity:   NewFakeIdentity(),
		Org:        org,
		User:       user,
		Board:      board,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
