package dal_test

import (
	"context"
	"testing"

	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/permissions"
	"github.com/hugh/boardstack/internal/tenancy"
	"github.com/hugh/boardstack/internal/testutil"
	"gorm.io/gorm"
)

// fixture is the common two-tenant arrangement: orgA with an owner and a
// board, orgB likewise. Cross-tenant tests act as orgA against orgB's data.
type fixture struct {
	db *gorm.DB

	orgA   *models.Organization
	userA  *models.User
	boardA *models.Board

	orgB   *models.Organization
	userB  *models.User
	boardB *models.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	orgA := testutil.CreateTestOrg(t, db)
	userA := testutil.CreateTestUser(t, db, orgA, models.OrgRoleOwner)
	boardA := testutil.CreateTestBoard(t, db, orgA, userA)

	orgB := testutil.CreateTestOrg(t, db)
	userB := testutil.CreateTestUser(t, db, orgB, models.OrgRoleOwner)
	boardB := testutil.CreateTestBoard(t, db, orgB, userB)

	return &fixture{
		db:    db,
		orgA:  orgA, userA: userA, boardA: boardA,
		orgB:  orgB, userB: userB, boardB: boardB,
	}
}

// dalFor builds a request-equivalent DAL for a user acting in an org.
func dalFor(db *gorm.DB, user *models.User, org *models.Organization) *dal.DAL {
	tc := &tenancy.TenantContext{
		UserID:     user.ID,
		OrgID:      org.ID,
		Membership: tenancy.Membership{Role: models.OrgRoleOwner, IsActive: true},
	}
	return dal.New(db, tc, permissions.NewResolver(db), testutil.NewTestLogger())
}

// actorOn resolves the effective permission state the handlers would pass
// into authorship- and hierarchy-checked operations.
func actorOn(t *testing.T, db *gorm.DB, user *models.User, org *models.Organization, board *models.Board) *permissions.Resolved {
	t.Helper()
	tc := &tenancy.TenantContext{
		UserID:     user.ID,
		OrgID:      org.ID,
		Membership: tenancy.Membership{Role: models.OrgRoleOwner, IsActive: true},
	}
	resolved, err := permissions.NewResolver(db).ResolveBoardPermissions(context.Background(), tc, board.ID)
	if err != nil {
		t.Fatalf("failed to resolve permissions: %v", err)
	}
	return resolved
}
