package handlers

import (
	"net/http"

	"github.com/hugh/boardstack/internal/api/middleware"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

type MeResponse struct {
	UserID       string `json:"user_id"`
	OrgID        string `json:"organization_id"`
	OrgRole      string `json:"org_role"`
	OrgRoleClaim string `json:"org_role_claim"`
}

// Get handles GET /api/v1/me — the resolved tenant context, useful for
// clients and as a cheap smoke test of the resolver.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	tc, err := scope.Tenant.Resolve(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		UserID:       tc.UserID.String(),
		OrgID:        tc.OrgID.String(),
		OrgRole:      string(tc.Membership.Role),
		OrgRoleClaim: tc.OrgRoleClaim,
	})
}
