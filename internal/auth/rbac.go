package auth

import (
	"log/slog"
	"net/http"
)

// Scope describes how broadly a permission applies: not at all, to rows the
// actor owns, or to every row.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

func (s Scope) Allows() bool {
	return s != ScopeNone
}

type Resource string

const (
	ResourceReimbursement Resource = "reimbursement"
	ResourceDirectExpense Resource = "direct_expense"
	ResourceProject       Resource = "project"
	ResourceCategory      Resource = "category"
	ResourceUser          Resource = "user"
	ResourceExpense       Resource = "expense"
	ResourceReport        Resource = "report"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionReview  Action = "review"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	// Reimbursement rejection is stage-bound: finance rejects during review,
	// admin rejects during approval. Separate actions keep each role out of
	// the other's stage.
	ActionRejectReview   Action = "reject_review"
	ActionRejectApproval Action = "reject_approval"
	ActionPay            Action = "pay"
	ActionDeactivate     Action = "deactivate"
)

// permissionTable is the single capability lookup consulted before every
// mutating operation. Keyed by (role, resource, action); absent entries mean
// denied.
var permissionTable = map[Role]map[Resource]map[Action]Scope{
	RoleAdmin: {
		ResourceReimbursement: {
			ActionRead:           ScopeAll,
			ActionApprove:        ScopeAll,
			ActionRejectApproval: ScopeAll,
		},
		ResourceDirectExpense: {
			ActionRead:    ScopeAll,
			ActionApprove: ScopeAll,
			ActionReject:  ScopeAll,
		},
		ResourceProject: {
			ActionCreate: ScopeAll,
			ActionRead:   ScopeAll,
			ActionUpdate: ScopeAll,
		},
		ResourceCategory: {
			ActionCreate:     ScopeAll,
			ActionRead:       ScopeAll,
			ActionUpdate:     ScopeAll,
			ActionDeactivate: ScopeAll,
		},
		ResourceUser: {
			ActionCreate:     ScopeAll,
			ActionRead:       ScopeAll,
			ActionUpdate:     ScopeAll,
			ActionDeactivate: ScopeAll,
		},
		ResourceExpense: {ActionRead: ScopeAll},
		ResourceReport:  {ActionRead: ScopeAll},
	},
	RoleFinance: {
		ResourceReimbursement: {
			ActionRead:         ScopeAll,
			ActionReview:       ScopeAll,
			ActionRejectReview: ScopeAll,
			ActionPay:          ScopeAll,
		},
		ResourceDirectExpense: {
			ActionCreate: ScopeAll,
			ActionRead:   ScopeAll,
			ActionPay:    ScopeAll,
		},
		ResourceProject:  {ActionRead: ScopeAll},
		ResourceCategory: {ActionRead: ScopeAll},
		ResourceExpense:  {ActionRead: ScopeAll},
		ResourceReport:   {ActionRead: ScopeAll},
	},
	RoleStaff: {
		ResourceReimbursement: {
			ActionCreate: ScopeOwn,
			ActionRead:   ScopeOwn,
		},
		ResourceProject:  {ActionRead: ScopeAll},
		ResourceCategory: {ActionRead: ScopeAll},
	},
}

// Can returns the scope granted to role for action on resource.
func Can(role Role, resource Resource, action Action) Scope {
	byResource, ok := permissionTable[role]
	if !ok {
		return ScopeNone
	}
	byAction, ok := byResource[resource]
	if !ok {
		return ScopeNone
	}
	return byAction[action]
}

// CanAccess resolves an ownership-scoped capability check in one call:
// scope "all" always passes, scope "own" passes only when the actor owns the
// resource row.
func CanAccess(u *User, resource Resource, action Action, ownerID int64) bool {
	switch Can(u.Role, resource, action) {
	case ScopeAll:
		return true
	case ScopeOwn:
		return u.ID == ownerID
	}
	return false
}

// RBACAuthorization guards route groups by role.
type RBACAuthorization struct {
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{logger: logger}
}

// RequireRole rejects requests whose authenticated user holds none of the
// given roles. Runs after the auth middleware.
func (ra *RBACAuthorization) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			ra.logger.WarnContext(r.Context(), "access denied: role not permitted",
				"user_id", user.ID,
				"user_role", user.Role,
				"required_roles", roles)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

// RequireCapability rejects requests whose role has no grant at all for
// (resource, action). Ownership checks for scope "own" stay in the services,
// which know the resource row.
func (ra *RBACAuthorization) RequireCapability(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !Can(user.Role, resource, action).Allows() {
				ra.logger.WarnContext(r.Context(), "access denied: capability not granted",
					"user_id", user.ID,
					"role", user.Role,
					"resource", resource,
					"action", action)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
