package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-import-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireImporter requires a role that may run attendance imports:
// master, root or supervisor. Employees are rejected here before the
// batch coordinator ever sees the request.
func RequireImporter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromClaims(r)
		if !ok || !role.AtLeast(user.RoleSupervisor) {
			response.HandleError(w, user.ErrImporterAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireMaster requires the platform administrator role
func RequireMaster(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromClaims(r)
		actor := user.User{Role: role}
		if !ok || !actor.IsMaster() {
			response.HandleError(w, user.ErrImporterAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func roleFromClaims(r *http.Request) (user.Role, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", false
	}
	return user.Role(roleStr), true
}
