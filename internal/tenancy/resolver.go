package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/identity"
	"gorm.io/gorm"
)

// Resolver turns a validated identity assertion into a TenantContext.
// One resolver is built per request; Resolve memoizes its result (success
// or failure) so repeated call sites cost one identity lookup and one set
// of database round-trips at most.
type Resolver struct {
	db     *gorm.DB
	idp    identity.Provider
	claims *auth.Claims
	logger *slog.Logger

	mu       sync.Mutex
	resolved bool
	tc       *TenantContext
	err      error
}

func NewResolver(db *gorm.DB, idp identity.Provider, claims *auth.Claims, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, idp: idp, claims: claims, logger: logger}
}

// Resolve returns the verified tenant context for this request.
func (r *Resolver) Resolve(ctx context.Context) (*TenantContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.tc, r.err
	}
	r.tc, r.err = r.resolve(ctx)
	r.resolved = true
	return r.tc, r.err
}

func (r *Resolver) resolve(ctx context.Context) (*TenantContext, error) {
	if r.claims == nil || r.claims.ExternalUserID == "" || r.claims.OrganizationID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	user, err := r.findOrProvisionUser(ctx)
	if err != nil {
		return nil, err
	}

	orgID := r.claims.OrganizationID

	var membership models.OrganizationMembership
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", user.ID, orgID).
		First(&membership).Error

	switch {
	case err == nil:
		// The local row always wins over the token once it exists.
		if membership.Status != models.MembershipActive {
			return nil, ErrForbidden
		}
		return &TenantContext{
			UserID:       user.ID,
			OrgID:        orgID,
			OrgRoleClaim: r.claims.OrgRole,
			Membership:   Membership{Role: membership.Role, IsActive: true},
		}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// The signed token proves membership at the identity-provider
		// level; trust its normalized role once and materialize a local
		// row so a future revocation has something to flip.
		role := NormalizeOrgRole(r.claims.OrgRole)
		if err := r.provisionMembership(ctx, user.ID, orgID, role); err != nil {
			return nil, err
		}
		return &TenantContext{
			UserID:       user.ID,
			OrgID:        orgID,
			OrgRoleClaim: r.claims.OrgRole,
			Membership:   Membership{Role: role, IsActive: true},
		}, nil

	default:
		return nil, fmt.Errorf("looking up organization membership: %w", err)
	}
}

// findOrProvisionUser resolves the internal user by external id, creating
// the row from the identity provider's canonical profile on first sight.
func (r *Resolver) findOrProvisionUser(ctx context.Context) (*models.User, error) {
	externalID := r.claims.ExternalUserID

	var user models.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	profile, err := r.idp.LookupUser(ctx, externalID)
	if err != nil && !errors.Is(err, identity.ErrProfileNotFound) {
		return nil, fmt.Errorf("fetching identity profile: %w", err)
	}

	user = models.User{ExternalID: externalID}
	if profile != nil {
		user.Email = profile.Email
		user.Name = profile.Name
		user.AvatarURL = profile.AvatarURL
	}
	// Provider data may be partial or missing; degrade to placeholders.
	if user.Email == "" {
		user.Email = externalID + "@placeholder.invalid"
	}
	if user.Name == "" {
		user.Name = "Unknown User"
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("provisioning user: %w", err)
		}
		// Lost the race to a concurrent identical request. Re-read into
		// a fresh struct: the failed Create already stamped user.ID, and
		// gorm would add that stale id to the WHERE clause.
		var existing models.User
		if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("re-reading user after race: %w", err)
		}
		return &existing, nil
	}

	r.logger.Info("provisioned user",
		"user_id", user.ID,
		"external_id", externalID,
	)
	return &user, nil
}

// provisionMembership creates the organization membership row, gated on
// the organization already existing locally so memberships are never
// invented for organizations that themselves haven't synced yet.
func (r *Resolver) provisionMembership(ctx context.Context, userID, orgID uuid.UUID, role models.OrgRole) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ?", orgID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking organization: %w", err)
	}
	if count == 0 {
		return nil
	}

	membership := models.OrganizationMembership{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Status:         models.MembershipActive,
	}
	if err := r.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Benign race with a concurrent identical request.
			return nil
		}
		return fmt.Errorf("provisioning organization membership: %w", err)
	}

	r.logger.Info("provisioned organization membership",
		"user_id", userID,
		"organization_id", orgID,
		"role", role,
	)
	return nil
}
