package tenancy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/identity"
	"github.com/hugh/boardstack/internal/tenancy"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubIdentity lets tests observe lookups and interleave writes to
// simulate provisioning races.
type stubIdentity struct {
	profiles map[string]*identity.Profile
	calls    int
	onLookup func()
}

func (s *stubIdentity) LookupUser(ctx context.Context, externalID string) (*identity.Profile, error) {
	s.calls++
	if s.onLookup != nil {
		s.onLookup()
	}
	if p, ok := s.profiles[externalID]; ok {
		return p, nil
	}
	return nil, identity.ErrProfileNotFound
}

func newResolver(db *gorm.DB, idp identity.Provider, claims *auth.Claims) *tenancy.Resolver {
	return tenancy.NewResolver(db, idp, claims, testutil.NewTestLogger())
}

func TestResolve_MissingClaims(t *testing.T) {
	db := testutil.SetupTestDB(t)
	idp := &stubIdentity{}

	tests := []struct {
		name   string
		claims *auth.Claims
	}{
		{"nil claims", nil},
		{"no user id", &auth.Claims{OrganizationID: uuid.New()}},
		{"no org id", &auth.Claims{ExternalUserID: "ext-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newResolver(db, idp, tt.claims).Resolve(context.Background())
			assert.ErrorIs(t, err, tenancy.ErrUnauthenticated)
		})
	}
}

func TestResolve_SelfHealingProvisioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)

	idp := &stubIdentity{profiles: map[string]*identity.Profile{
		"ext-new": {ExternalID: "ext-new", Email: "new@example.com", Name: "New User"},
	}}
	claims := &auth.Claims{
		ExternalUserID: "ext-new",
		OrganizationID: org.ID,
		OrgRole:        "workspace admin",
	}

	tc, err := newResolver(db, idp, claims).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, org.ID, tc.OrgID)
	assert.Equal(t, models.OrgRoleAdmin, tc.Membership.Role)
	assert.True(t, tc.Membership.IsActive)

	var user models.User
	require.NoError(t, db.Where("external_id = ?", "ext-new").First(&user).Error)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, tc.UserID, user.ID)

	var membership models.OrganizationMembership
	require.NoError(t, db.Where("user_id = ? AND organization_id = ?", user.ID, org.ID).
		First(&membership).Error)
	assert.Equal(t, models.OrgRoleAdmin, membership.Role)
	assert.Equal(t, models.MembershipActive, membership.Status)
}

func TestResolve_ProvisioningRace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)

	// The identity lookup fires only on the provisioning path; use it to
	// slip in a concurrent identical request's insert so the resolver's
	// own create loses the race.
	idp := &stubIdentity{profiles: map[string]*identity.Profile{
		"ext-race": {ExternalID: "ext-race", Email: "race@example.com", Name: "Race"},
	}}
	idp.onLookup = func() {
		user := models.User{ExternalID: "ext-race", Email: "race@example.com", Name: "Race"}
		require.NoError(t, db.Create(&user).Error)
	}

	claims := &auth.Claims{
		ExternalUserID: "ext-race",
		OrganizationID: org.ID,
		OrgRole:        "member",
	}
	tc, err := newResolver(db, idp, claims).Resolve(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("external_id = ?", "ext-race").Count(&count).Error)
	assert.Equal(t, int64(1), count, "race must not duplicate the user row")

	var user models.User
	require.NoError(t, db.Where("external_id = ?", "ext-race").First(&user).Error)
	assert.Equal(t, user.ID, tc.UserID)
}

func TestResolve_ProvisioningSkipsUnknownOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)

	idp := &stubIdentity{profiles: map[string]*identity.Profile{
		"ext-1": {ExternalID: "ext-1", Email: "a@example.com", Name: "A"},
	}}
	claims := &auth.Claims{
		ExternalUserID: "ext-1",
		OrganizationID: uuid.New(), // not synced locally
		OrgRole:        "member",
	}

	tc, err := newResolver(db, idp, claims).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleMember, tc.Membership.Role)

	var count int64
	require.NoError(t, db.Model(&models.OrganizationMembership{}).Count(&count).Error)
	assert.Zero(t, count, "no membership row for an organization that hasn't synced")
}

func TestResolve_LocalRoleWinsOverClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org, models.OrgRoleGuest)

	idp := &stubIdentity{}
	claims := &auth.Claims{
		ExternalUserID: user.ExternalID,
		OrganizationID: org.ID,
		OrgRole:        "owner", // token says owner; local row says guest
	}

	tc, err := newResolver(db, idp, claims).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleGuest, tc.Membership.Role)
	assert.Zero(t, idp.calls, "known user needs no identity lookup")
}

func TestResolve_RevokedMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org, models.OrgRoleAdmin)

	require.NoError(t, db.Model(&models.OrganizationMembership{}).
		Where("user_id = ? AND organization_id = ?", user.ID, org.ID).
		Update("status", models.MembershipRevoked).Error)

	claims := &auth.Claims{
		ExternalUserID: user.ExternalID,
		OrganizationID: org.ID,
		OrgRole:        "admin", // still validly claims the org
	}
	_, err := newResolver(db, &stubIdentity{}, claims).Resolve(context.Background())
	assert.ErrorIs(t, err, tenancy.ErrForbidden)
}

func TestResolve_Memoized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)

	idp := &stubIdentity{profiles: map[string]*identity.Profile{
		"ext-memo": {ExternalID: "ext-memo", Email: "m@example.com", Name: "M"},
	}}
	claims := &auth.Claims{
		ExternalUserID: "ext-memo",
		OrganizationID: org.ID,
		OrgRole:        "member",
	}

	resolver := newResolver(db, idp, claims)
	first, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, idp.calls, "identity provider consulted at most once per request")
}

func TestResolve_ProfileDegradesToPlaceholder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)

	// Provider has no record despite the valid token.
	idp := &stubIdentity{}
	claims := &auth.Claims{
		ExternalUserID: "ext-ghost",
		OrganizationID: org.ID,
		OrgRole:        "member",
	}

	tc, err := newResolver(db, idp, claims).Resolve(context.Background())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("id = ?", tc.UserID).First(&user).Error)
	assert.Equal(t, "ext-ghost@placeholder.invalid", user.Email)
	assert.Equal(t, "Unknown User", user.Name)
}

func TestNormalizeOrgRole(t *testing.T) {
	tests := []struct {
		claim string
		want  models.OrgRole
	}{
		{"owner", models.OrgRoleOwner},
		{"Workspace Owner", models.OrgRoleOwner},
		{"admin", models.OrgRoleAdmin},
		{"ORG ADMIN", models.OrgRoleAdmin},
		{"guest", models.OrgRoleGuest},
		{"member", models.OrgRoleMember},
		{"", models.OrgRoleMember},
		{"something-else", models.OrgRoleMember},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tenancy.NormalizeOrgRole(tt.claim), "claim %q", tt.claim)
	}
}

func TestRequireRole(t *testing.T) {
	tc := &tenancy.TenantContext{
		Membership: tenancy.Membership{Role: models.OrgRoleMember, IsActive: true},
	}

	assert.NoError(t, tenancy.RequireRole(tc, models.OrgRoleGuest))
	assert.NoError(t, tenancy.RequireRole(tc, models.OrgRoleMember))
	assert.ErrorIs(t, tenancy.RequireRole(tc, models.OrgRoleAdmin), tenancy.ErrForbidden)
	assert.ErrorIs(t, tenancy.RequireRole(nil, models.OrgRoleGuest), tenancy.ErrUnauthenticated)
}
