package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/handler/http/response"
)

// AdminOnly guards the tolerance and override management endpoints.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != string(user.RoleAdmin) {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
