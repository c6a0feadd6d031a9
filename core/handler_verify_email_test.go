package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/db/mock"
)

// statefulUserMock wires the mock around one mutable user record so the
// issue-then-consume round trip behaves like the real store.
func statefulUserMock(user *db.User) *mock.Db {
	return &mock.Db{
		GetUserByEmailFunc: func(email string) (*db.User, error) {
			if user != nil && email == user.Email {
				u := *user
				return &u, nil
			}
			return nil, nil
		},
		GetUserByIdFunc: func(id string) (*db.User, error) {
			if user != nil && id == user.ID {
				u := *user
				return &u, nil
			}
			return nil, nil
		},
		SetVerificationNonceFunc: func(userID, nonce string) error {
			user.VerificationNonce = nonce
			return nil
		},
		MarkVerifiedFunc: func(userID string) error {
			user.Verified = true
			user.IsActive = true
			user.VerificationNonce = ""
			return nil
		},
	}
}

func TestVerifyEmailHandlerGet(t *testing.T) {
	user := &db.User{ID: "u1", Email: "founder@example.com"}
	app := newTestApp(t, statefulUserMock(user))

	token, err := app.verifier.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/verify-email?token="+token, nil)
	rec := httptest.NewRecorder()
	app.VerifyEmailHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if !user.Verified {
		t.Error("user not marked verified")
	}

	// The token was consumed; replaying the link must fail.
	rec = httptest.NewRecorder()
	app.VerifyEmailHandler(rec, httptest.NewRequest(http.MethodGet, "/api/verify-email?token="+token, nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replay status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVerifyEmailHandlerPostBody(t *testing.T) {
	user := &db.User{ID: "u1", Email: "founder@example.com"}
	app := newTestApp(t, statefulUserMock(user))

	token, err := app.verifier.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := httptest.NewRecorder()
	app.VerifyEmailHandler(rec, postJSON("/api/verify-email", `{"token": "`+token+`"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
}

func TestVerifyEmailHandlerRejectsBadToken(t *testing.T) {
	app := newTestApp(t, &mock.Db{})

	for name, target := range map[string]string{
		"garbage": "/api/verify-email?token=not-a-token",
		"missing": "/api/verify-email",
	} {
		rec := httptest.NewRecorder()
		app.VerifyEmailHandler(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestResendVerificationHandler(t *testing.T) {
	user := &db.User{ID: "u1", Email: "founder@example.com"}
	dbMock := statefulUserMock(user)
	jobs := 0
	dbMock.InsertJobFunc = func(job db.Job) error {
		jobs++
		return nil
	}
	app := newTestApp(t, dbMock)

	rec := httptest.NewRecorder()
	app.ResendVerificationHandler(rec, postJSON("/api/resend-verification", `{"email": "founder@example.com"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if jobs != 1 {
		t.Fatalf("jobs queued = %d, want 1", jobs)
	}

	// Second request inside the throttle window: same 200, no new job.
	rec = httptest.NewRecorder()
	app.ResendVerificationHandler(rec, postJSON("/api/resend-verification", `{"email": "founder@example.com"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("throttled status = %d, want %d", rec.Code, http.StatusOK)
	}
	if jobs != 1 {
		t.Errorf("jobs queued after throttle = %d, want 1", jobs)
	}
}

func TestResendVerificationHandlerUnknownEmailStaysGeneric(t *testing.T) {
	jobs := 0
	app := newTestApp(t, &mock.Db{
		InsertJobFunc: func(job db.Job) error {
			jobs++
			return nil
		},
	})

	rec := httptest.NewRecorder()
	app.ResendVerificationHandler(rec, postJSON("/api/resend-verification", `{"email": "nobody@example.com"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if jobs != 0 {
		t.Errorf("jobs queued = %d, want 0", jobs)
	}
}
