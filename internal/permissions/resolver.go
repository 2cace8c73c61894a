package permissions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// Resolved is the effective permission state of one user on one board.
// A nil Membership means the user has no membership row (and therefore no
// permissions); whether that is fatal is the caller's decision.
type Resolved struct {
	Membership  *models.BoardMembership
	Role        models.BoardRole
	Permissions Set
}

// Has reports whether the permission is in the effective set. Always
// false without a membership.
func (r *Resolved) Has(p models.Permission) bool {
	if r == nil || r.Membership == nil {
		return false
	}
	return r.Permissions.Has(p)
}

type cacheKey struct {
	boardID uuid.UUID
	userID  uuid.UUID
}

// Resolver computes effective board permission sets. One resolver is
// built per request; its cache is request-scoped and must be invalidated
// by any operation that writes membership or scheme rows within the same
// request.
type Resolver struct {
	db *gorm.DB

	mu    sync.Mutex
	cache map[cacheKey]*Resolved
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, cache: make(map[cacheKey]*Resolved)}
}

// ResolveBoardPermissions returns the effective permission set for the
// context's user on the board, cached by (boardID, userID).
func (r *Resolver) ResolveBoardPermissions(ctx context.Context, tc *tenancy.TenantContext, boardID uuid.UUID) (*Resolved, error) {
	key := cacheKey{boardID: boardID, userID: tc.UserID}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	resolved, err := r.resolve(ctx, tc, boardID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = resolved
	r.mu.Unlock()
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, tc *tenancy.TenantContext, boardID uuid.UUID) (*Resolved, error) {
	// The board lookup is org-scoped; a foreign-tenant board behaves
	// exactly like a nonexistent one.
	var board models.Board
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", boardID, tc.OrgID).
		First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Resolved{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up board: %w", err)
	}

	var membership models.BoardMembership
	err = r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, tc.UserID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Resolved{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up board membership: %w", err)
	}

	perms := DefaultPermissions(membership.Role)

	// Layer 2: the board's assigned scheme, falling back to the
	// organization's default scheme when the board has none.
	boardSchemeID := board.SchemeID
	if boardSchemeID == nil {
		var defaultScheme models.PermissionScheme
		err := r.db.WithContext(ctx).
			Where("organization_id = ? AND is_default = ?", tc.OrgID, true).
			First(&defaultScheme).Error
		if err == nil {
			boardSchemeID = &defaultScheme.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("looking up default scheme: %w", err)
		}
	}
	if boardSchemeID != nil {
		if err := r.applyScheme(ctx, perms, *boardSchemeID, membership.Role); err != nil {
			return nil, err
		}
	}

	// Layer 3: the member's personal override scheme, highest priority.
	if membership.SchemeID != nil {
		if err := r.applyScheme(ctx, perms, *membership.SchemeID, membership.Role); err != nil {
			return nil, err
		}
	}

	return &Resolved{
		Membership:  &membership,
		Role:        membership.Role,
		Permissions: perms,
	}, nil
}

// applyScheme mutates the set with the scheme's entries matching the
// member's role: granted adds, revoked removes.
func (r *Resolver) applyScheme(ctx context.Context, perms Set, schemeID uuid.UUID, role models.BoardRole) error {
	var entries []models.PermissionSchemeEntry
	if err := r.db.WithContext(ctx).
		Where("scheme_id = ? AND role = ?", schemeID, role).
		Find(&entries).Error; err != nil {
		return fmt.Errorf("loading scheme entries: %w", err)
	}
	for _, entry := range entries {
		if entry.Granted {
			perms.add(entry.Permission)
		} else {
			perms.remove(entry.Permission)
		}
	}
	return nil
}

// RequireBoardPermission enforces a permission. No membership resolves to
// ErrNotFound, indistinguishable from a nonexistent board; a membership
// lacking the permission resolves to ErrForbidden. On success the
// resolved state is returned for callers that need the role.
func (r *Resolver) RequireBoardPermission(ctx context.Context, tc *tenancy.TenantContext, boardID uuid.UUID, perm models.Permission) (*Resolved, error) {
	resolved, err := r.ResolveBoardPermissions(ctx, tc, boardID)
	if err != nil {
		return nil, err
	}
	if resolved.Membership == nil {
		return nil, tenancy.ErrNotFound
	}
	if !resolved.Has(perm) {
		return nil, tenancy.ErrForbidden
	}
	return resolved, nil
}

// HasBoardPermission is the non-throwing variant used for UI visibility.
func (r *Resolver) HasBoardPermission(ctx context.Context, tc *tenancy.TenantContext, boardID uuid.UUID, perm models.Permission) bool {
	resolved, err := r.ResolveBoardPermissions(ctx, tc, boardID)
	if err != nil {
		return false
	}
	return resolved.Has(perm)
}

// Invalidate drops the cached entry for one (board, user) pair.
func (r *Resolver) Invalidate(boardID, userID uuid.UUID) {
	r.mu.Lock()
	delete(r.cache, cacheKey{boardID: boardID, userID: userID})
	r.mu.Unlock()
}

// InvalidateBoard drops every cached entry for a board; used after scheme
// writes that can affect any member.
func (r *Resolver) InvalidateBoard(boardID uuid.UUID) {
	r.mu.Lock()
	for key := range r.cache {
		if key.boardID == boardID {
			delete(r.cache, key)
		}
	}
	r.mu.Unlock()
}

// ClearCache drops everything; used after org-wide scheme writes.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[cacheKey]*Resolved)
	r.mu.Unlock()
}
