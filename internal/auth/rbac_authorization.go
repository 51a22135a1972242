package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/transport"
)

// RBACAuthorization guards routes whose operations are decided by role alone.
type RBACAuthorization struct {
	*transport.BaseHandler
	policy *AccessPolicy
}

func NewRBACAuthorization(policy *AccessPolicy, logger *slog.Logger) *RBACAuthorization {
	if policy == nil {
		policy = NewAccessPolicy()
	}
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		policy:      policy,
	}
}

// Require rejects the request with 403 unless the policy allows op for the caller.
func (ra *RBACAuthorization) Require(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := internal.CallerFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: caller not found in context")
				ra.WriteAppError(w, r, internal.ErrMissingToken)
				return
			}

			if !ra.policy.Decide(caller, op).Allowed() {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", caller.ID,
					"role", caller.Role,
					"operation", op)
				ra.WriteAppError(w, r, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.Require(OpListUsers)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(OpAdminListUsers)
}
