package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jshttprouter "github.com/julienschmidt/httprouter"

	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/db/mock"
	"github.com/startupgate/startupgate/funding"
)

// patchProject builds an authenticated PATCH request with the route
// parameter and session claims RequireAuth would have installed.
func patchProject(path, body, userID string, staff bool) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), jshttprouter.ParamsKey,
		jshttprouter.Params{{Key: "id", Value: "p1"}})
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxStaff, staff)
	return req.WithContext(ctx)
}

// projectMock serves one mutable project plus the owner's profile, with
// conditional updates that honor the expected-state contract.
func projectMock(project *db.Project) *mock.Db {
	return &mock.Db{
		GetProjectByIdFunc: func(id string) (*db.Project, error) {
			if id != project.ID {
				return nil, nil
			}
			p := *project
			return &p, nil
		},
		GetProfileByUserIDFunc: func(userID string) (*db.Profile, error) {
			if userID != "owner" {
				return nil, nil
			}
			return &db.Profile{
				Role:    db.RoleStartup,
				Startup: &db.StartupProfile{ID: project.OwnerProfileID, UserID: "owner"},
			}, nil
		},
		UpdateProjectStatusFunc: func(id, expectedStatus, newStatus string, fundedAt time.Time) error {
			if id != project.ID || project.Status != expectedStatus {
				return db.ErrConflict
			}
			project.Status = newStatus
			if project.FundedAt.IsZero() && !fundedAt.IsZero() {
				project.FundedAt = fundedAt
			}
			return nil
		},
		UpdateProjectFundingFunc: func(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error {
			if id != project.ID || project.Status != expectedStatus || project.RaisedAmount != expectedRaised {
				return db.ErrConflict
			}
			project.RaisedAmount = newRaised
			if newStatus != "" {
				project.Status = newStatus
			}
			if project.FundedAt.IsZero() && !fundedAt.IsZero() {
				project.FundedAt = fundedAt
			}
			return nil
		},
	}
}

func testProject() *db.Project {
	return &db.Project{
		ID:             "p1",
		OwnerProfileID: "prof1",
		Status:         funding.StatusFundraising,
		TargetAmount:   100_000,
		RaisedAmount:   40_000,
	}
}

func TestUpdateProjectStatusHandlerOwner(t *testing.T) {
	project := testProject()
	app := newTestApp(t, projectMock(project))

	rec := httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status", `{"status": "funded"}`, "owner", false))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != funding.StatusFunded {
		t.Errorf("response status = %q, want %q", resp["status"], funding.StatusFunded)
	}
	if project.Status != funding.StatusFunded {
		t.Errorf("stored status = %q, want %q", project.Status, funding.StatusFunded)
	}
	if project.FundedAt.IsZero() {
		t.Error("funded_at not stamped")
	}
}

func TestUpdateProjectStatusHandlerInvalidTransition(t *testing.T) {
	project := testProject()
	project.Status = funding.StatusIdea
	app := newTestApp(t, projectMock(project))

	rec := httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status", `{"status": "funded"}`, "owner", false))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["detail"] == "" {
		t.Errorf("response %s missing detail", rec.Body)
	}
}

func TestUpdateProjectStatusHandlerOwnership(t *testing.T) {
	app := newTestApp(t, projectMock(testProject()))

	rec := httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status", `{"status": "funded"}`, "intruder", false))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Staff skip the ownership check entirely.
	rec = httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status", `{"status": "funded"}`, "admin", true))
	if rec.Code != http.StatusOK {
		t.Errorf("staff status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
}

func TestUpdateProjectStatusHandlerAdminOverride(t *testing.T) {
	project := testProject()
	project.Status = funding.StatusClosed
	app := newTestApp(t, projectMock(project))

	// The override flag is refused for non-staff even on their own
	// project.
	rec := httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status",
		`{"status": "fundraising", "admin_override": true}`, "owner", false))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-staff override status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, patchProject("/api/projects/p1/status",
		`{"status": "fundraising", "admin_override": true}`, "admin", true))
	if rec.Code != http.StatusOK {
		t.Fatalf("staff override status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if project.Status != funding.StatusFundraising {
		t.Errorf("stored status = %q, want %q", project.Status, funding.StatusFundraising)
	}
}

func TestUpdateProjectStatusHandlerNotFound(t *testing.T) {
	app := newTestApp(t, projectMock(testProject()))

	req := patchProject("/api/projects/p1/status", `{"status": "closed"}`, "owner", false)
	ctx := context.WithValue(req.Context(), jshttprouter.ParamsKey,
		jshttprouter.Params{{Key: "id", Value: "missing"}})
	rec := httptest.NewRecorder()
	app.UpdateProjectStatusHandler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateRaisedAmountHandler(t *testing.T) {
	project := testProject()
	app := newTestApp(t, projectMock(project))

	rec := httptest.NewRecorder()
	app.UpdateRaisedAmountHandler(rec, patchProject("/api/projects/p1/raised-amount", `{"new_amount": 60000}`, "owner", false))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["new_amount"] != 60_000 {
		t.Errorf("new_amount = %d, want 60000", resp["new_amount"])
	}
}

func TestUpdateRaisedAmountHandlerAutoFunds(t *testing.T) {
	project := testProject()
	app := newTestApp(t, projectMock(project))

	rec := httptest.NewRecorder()
	app.UpdateRaisedAmountHandler(rec, patchProject("/api/projects/p1/raised-amount", `{"new_amount": 100000}`, "owner", false))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
	if project.Status != funding.StatusFunded {
		t.Errorf("stored status = %q, want %q", project.Status, funding.StatusFunded)
	}
	if project.FundedAt.IsZero() {
		t.Error("funded_at not stamped")
	}
}

func TestUpdateRaisedAmountHandlerOverfundingRefused(t *testing.T) {
	project := testProject()
	app := newTestApp(t, projectMock(project))

	rec := httptest.NewRecorder()
	app.UpdateRaisedAmountHandler(rec, patchProject("/api/projects/p1/raised-amount", `{"new_amount": 150000}`, "owner", false))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	project.AllowOverfunding = true
	rec = httptest.NewRecorder()
	app.UpdateRaisedAmountHandler(rec, patchProject("/api/projects/p1/raised-amount", `{"new_amount": 150000}`, "owner", false))
	if rec.Code != http.StatusOK {
		t.Errorf("overfunding allowed: status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body)
	}
}

func TestUpdateRaisedAmountHandlerMissingAmount(t *testing.T) {
	app := newTestApp(t, projectMock(testProject()))

	rec := httptest.NewRecorder()
	app.UpdateRaisedAmountHandler(rec, patchProject("/api/projects/p1/raised-amount", `{}`, "owner", false))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
