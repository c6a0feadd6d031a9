package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/funding"
	"github.com/startupgate/startupgate/router"
)

// UpdateProjectStatusHandler moves a project along its lifecycle.
// Endpoint: PATCH /api/projects/:id/status
// Authenticated: Yes
//
// Non-staff callers must own the project and may only follow the
// forward transition graph. Staff may set admin_override to jump to
// any state; the override flag is refused for everyone else.
func (a *App) UpdateProjectStatusHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		Status        string `json:"status"`
		AdminOverride bool   `json:"admin_override"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	projectID := router.Param(r.Context(), "id")
	isStaff := StaffFrom(r.Context())

	if body.AdminOverride && !isStaff {
		writeJsonResponse(w, errorForbidden)
		return
	}
	if !isStaff {
		if ok := a.callerOwnsProject(w, r, projectID); !ok {
			return
		}
	}

	project, err := a.funding.ChangeStatus(projectID, body.Status, body.AdminOverride)
	if err != nil {
		a.writeFundingError(w, err)
		return
	}

	writeJsonData(w, http.StatusOK, map[string]string{"status": project.Status})
}

// UpdateRaisedAmountHandler records progress toward a funding target.
// Endpoint: PATCH /api/projects/:id/raised-amount
// Authenticated: Yes
//
// Reaching the target while fundraising flips the project to funded in
// the same update.
func (a *App) UpdateRaisedAmountHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		NewAmount *int64 `json:"new_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewAmount == nil {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	projectID := router.Param(r.Context(), "id")
	if !StaffFrom(r.Context()) {
		if ok := a.callerOwnsProject(w, r, projectID); !ok {
			return
		}
	}

	project, err := a.funding.UpdateRaisedAmount(projectID, *body.NewAmount)
	if err != nil {
		a.writeFundingError(w, err)
		return
	}

	writeJsonData(w, http.StatusOK, map[string]int64{"new_amount": project.RaisedAmount})
}

// callerOwnsProject checks that the authenticated user's profile owns
// the project. It writes the error response itself and reports whether
// the handler may proceed.
func (a *App) callerOwnsProject(w http.ResponseWriter, r *http.Request, projectID string) bool {
	project, err := a.DbProject().GetProjectById(projectID)
	if err != nil {
		a.Logger().Error("project lookup failed", "project_id", projectID, "err", err)
		writeJsonResponse(w, errorInternal)
		return false
	}
	if project == nil {
		writeJsonResponse(w, errorNotFound)
		return false
	}

	profile, err := a.DbProfile().GetProfileByUserID(UserIDFrom(r.Context()))
	if err != nil {
		a.Logger().Error("profile lookup failed", "err", err)
		writeJsonResponse(w, errorInternal)
		return false
	}
	if profile == nil || profile.ID() != project.OwnerProfileID {
		writeJsonResponse(w, errorForbidden)
		return false
	}
	return true
}

// writeFundingError maps state machine errors onto HTTP responses.
// Rule violations come back as 400 with the reason in the detail field
// so clients can show why the change was refused.
func (a *App) writeFundingError(w http.ResponseWriter, err error) {
	var invalid *funding.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		writeJsonDetail(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, funding.ErrUnknownStatus),
		errors.Is(err, funding.ErrOverfundingNotAllowed),
		errors.Is(err, funding.ErrNegativeAmount):
		writeJsonDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrProjectNotFound):
		writeJsonResponse(w, errorNotFound)
	case errors.Is(err, db.ErrConflict):
		writeJsonResponse(w, errorConflict)
	default:
		a.Logger().Error("project update failed", "err", err)
		writeJsonResponse(w, errorInternal)
	}
}
