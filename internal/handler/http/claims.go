package http

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// currentUserID pulls the authenticated user id out of the verified JWT
// claims. Returns false when the claim is absent or not a string, which
// only happens on a token our own issuer did not mint.
func currentUserID(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
