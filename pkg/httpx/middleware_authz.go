package httpx

import (
	"net/http"
	"strings"
)

// RequireRole allows the request through when the caller's role is one of
// the listed roles. Roles are a flat set, not a hierarchy: a superadmin is
// not implicitly an admin, so routes meant for both must list both.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := roleFromCtx(r.Context())
			if _, ok := want[role]; ok {
				next.ServeHTTP(w, r)
				return
			}
			writeRoleError(w, allowed...)
		})
	}
}

// RFC 6750-style error response for an authenticated caller whose role
// does not grant access.
func writeRoleError(w http.ResponseWriter, allowed ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(allowed, " ")+`"`)
	WriteError(w, http.StatusForbidden, CodeInsufficientRole, "role does not permit this operation")
}
