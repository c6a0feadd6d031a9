package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
)

func TestRequestPasswordResetHandler(t *testing.T) {
	user := activeUser(t, "hunter2hunter2")
	dbMock := statefulUserMock(user)

	var audit *db.ResetAttempt
	jobs := 0
	dbMock.InsertResetAttemptFunc = func(a db.ResetAttempt) error {
		audit = &a
		return nil
	}
	dbMock.InsertJobFunc = func(job db.Job) error {
		jobs++
		return nil
	}
	app := newTestApp(t, dbMock)

	rec := httptest.NewRecorder()
	app.RequestPasswordResetHandler(rec, postJSON("/api/request-password-reset", `{"email": "founder@example.com"}`))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusAccepted, rec.Body)
	}
	if jobs != 1 {
		t.Errorf("jobs queued = %d, want 1", jobs)
	}
	if audit == nil || !audit.TokenSent || audit.UserID != "u1" {
		t.Errorf("audit row = %+v, want token_sent for u1", audit)
	}
}

func TestRequestPasswordResetHandlerUnknownEmail(t *testing.T) {
	var audit *db.ResetAttempt
	jobs := 0
	dbMock := statefulUserMock(nil)
	dbMock.InsertResetAttemptFunc = func(a db.ResetAttempt) error {
		audit = &a
		return nil
	}
	dbMock.InsertJobFunc = func(job db.Job) error {
		jobs++
		return nil
	}
	app := newTestApp(t, dbMock)

	rec := httptest.NewRecorder()
	app.RequestPasswordResetHandler(rec, postJSON("/api/request-password-reset", `{"email": "nobody@example.com"}`))

	// Same 202 as for a known address; only the audit log differs.
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if jobs != 0 {
		t.Errorf("jobs queued = %d, want 0", jobs)
	}
	if audit == nil || audit.TokenSent || audit.UserID != "" {
		t.Errorf("audit row = %+v, want anonymous row without token", audit)
	}
}

func TestConfirmPasswordResetHandler(t *testing.T) {
	user := activeUser(t, "old-password-1")
	dbMock := statefulUserMock(user)
	dbMock.UpdatePasswordFunc = func(userID, newPassword string) error {
		user.Password = newPassword
		return nil
	}
	app := newTestApp(t, dbMock)

	token, err := app.resetter.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := httptest.NewRecorder()
	app.ConfirmPasswordResetHandler(rec, postJSON("/api/confirm-password-reset",
		`{"token": "`+token+`", "password": "brand-new-password"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if !crypto.CheckPassword("brand-new-password", user.Password) {
		t.Error("password was not updated")
	}

	// The token was signed against the old password hash, so it died
	// with the change.
	rec = httptest.NewRecorder()
	app.ConfirmPasswordResetHandler(rec, postJSON("/api/confirm-password-reset",
		`{"token": "`+token+`", "password": "another-password-1"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replay status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestConfirmPasswordResetHandlerShortPassword(t *testing.T) {
	user := activeUser(t, "old-password-1")
	app := newTestApp(t, statefulUserMock(user))

	token, err := app.resetter.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := httptest.NewRecorder()
	app.ConfirmPasswordResetHandler(rec, postJSON("/api/confirm-password-reset",
		`{"token": "`+token+`", "password": "short"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
