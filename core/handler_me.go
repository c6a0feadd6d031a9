package core

import (
	"net/http"

	"github.com/startupgate/startupgate/db"
)

// MeHandler returns the authenticated user's account and profile.
// Endpoint: GET /api/me
// Authenticated: Yes
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	user, err := a.DbAuth().GetUserById(userID)
	if err != nil {
		a.Logger().Error("user lookup failed", "user_id", userID, "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}
	if user == nil {
		writeJsonResponse(w, errorInvalidSession)
		return
	}

	// The role lives on the role link table, not the user row; the
	// claim in the access token may predate a role change.
	role, err := a.DbAuth().GetUserRole(userID)
	if err != nil {
		a.Logger().Error("role lookup failed", "user_id", userID, "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	profile, err := a.DbProfile().GetProfileByUserID(userID)
	if err != nil {
		a.Logger().Error("profile lookup failed", "user_id", userID, "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	writeJsonData(w, http.StatusOK, struct {
		ID       string      `json:"id"`
		Email    string      `json:"email"`
		Role     string      `json:"role"`
		Verified bool        `json:"verified"`
		Profile  *db.Profile `json:"profile,omitempty"`
	}{
		ID:       user.ID,
		Email:    user.Email,
		Role:     role,
		Verified: user.Verified,
		Profile:  profile,
	})
}
