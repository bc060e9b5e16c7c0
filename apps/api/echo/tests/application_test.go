package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/user"
)

func Test_applicationApi_apply(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)

	now := time.Now().UTC()
	newApp := attachment.NewApplication{
		OrganizationID: org.ID,
		Position:       "Intern Developer",
		StartDate:      now.AddDate(0, 1, 0),
		EndDate:        now.AddDate(0, 4, 0),
	}

	// pending organization must be refused
	pendingOrg, err := e.orgSvc.Register(ctx, organization.NewOrganization{
		Name:     "Mpesa Ltd",
		Industry: "Fintech",
		City:     "Nairobi",
	}, coordinator.ID)
	if err != nil {
		t.Fatalf("registering pending org: %v", err)
	}
	pendingApp := newApp
	pendingApp.OrganizationID = pendingOrg.ID

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students only", token: getToken(t, coordinator), body: marchallObj(t, newApp),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unverified organization refused", token: getToken(t, stdUsr), body: marchallObj(t, pendingApp),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "organization is not verified"}),
		},
		{name: "Application created", token: getToken(t, stdUsr), body: marchallObj(t, newApp), wantCode: http.StatusCreated},
		{
			name: "One open application per period", token: getToken(t, stdUsr), body: marchallObj(t, newApp),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "an open application already exists for this period"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/applications"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			e.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var app attachment.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if app.Status != attachment.StatusDraft {
					t.Errorf("Status = %v; expected %v", app.Status, attachment.StatusDraft)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

// the full happy path, draft to completed, through the API
func Test_applicationApi_workflow(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)

	now := time.Now().UTC()
	app, err := e.attSvc.Apply(ctx, attachment.NewApplication{
		OrganizationID: org.ID,
		Position:       "Intern Developer",
		StartDate:      now.AddDate(0, -1, 0),
		EndDate:        now.AddDate(0, 2, 0),
	}, std)
	if err != nil {
		t.Fatalf("Apply(): %v", err)
	}

	studentToken := getToken(t, stdUsr)
	supToken := getToken(t, supUsr)
	coordToken := getToken(t, coordinator)

	transition := func(t *testing.T, token string, to attachment.Status, wantCode int) attachment.Application {
		t.Helper()
		body := marchallObj(t, attachment.TransitionRequest{Status: to})
		req, rec := newAuthRequest(http.MethodPost, "/v1/applications/"+app.ID+"/transition", token, body)
		e.app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("transition to %v: code = %v; wantCode %v; body %v", to, rec.Code, wantCode, rec.Body.String())
		}
		var out attachment.Application
		if wantCode == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
		}
		return out
	}

	// students cannot skip ahead
	transition(t, studentToken, attachment.StatusApproved, http.StatusBadRequest)
	// only the student submits a draft
	transition(t, coordToken, attachment.StatusSubmitted, http.StatusForbidden)

	transition(t, studentToken, attachment.StatusSubmitted, http.StatusOK)
	transition(t, coordToken, attachment.StatusVerified, http.StatusOK)
	transition(t, coordToken, attachment.StatusDepartmentReview, http.StatusOK)
	transition(t, supToken, attachment.StatusDepartmentApproved, http.StatusOK)
	transition(t, coordToken, attachment.StatusCoordinatorReview, http.StatusOK)
	got := transition(t, coordToken, attachment.StatusApproved, http.StatusOK)
	if got.Status != attachment.StatusApproved {
		t.Fatalf("Status = %v; expected %v", got.Status, attachment.StatusApproved)
	}

	// placement assigns the supervisor
	placeBody := marchallObj(t, attachment.Placement{SupervisorID: sup.ID})
	req, rec := newAuthRequest(http.MethodPost, "/v1/applications/"+app.ID+"/place", coordToken, placeBody)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("place: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var placed attachment.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if placed.Status != attachment.StatusPlaced || placed.SupervisorID != sup.ID {
		t.Fatalf("placed = %+v; expected placed with supervisor %v", placed, sup.ID)
	}

	transition(t, supToken, attachment.StatusOngoing, http.StatusOK)

	// student status follows the attachment
	std, err = e.stdSvc.GetByID(ctx, std.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if std.Status != "on_attachment" {
		t.Errorf("student status = %v; expected on_attachment", std.Status)
	}

	// progress is live once ongoing
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/progress", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var progress struct {
		Progress int `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if progress.Progress <= 0 || progress.Progress > 100 {
		t.Errorf("progress = %v; expected within (0, 100]", progress.Progress)
	}

	// termination without a reason is refused
	transition(t, supToken, attachment.StatusTerminated, http.StatusBadRequest)

	got = transition(t, supToken, attachment.StatusCompleted, http.StatusOK)
	if got.Status != attachment.StatusCompleted {
		t.Fatalf("Status = %v; expected %v", got.Status, attachment.StatusCompleted)
	}

	// completed is terminal
	transition(t, coordToken, attachment.StatusOngoing, http.StatusBadRequest)
}

func Test_applicationApi_withdraw(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)

	now := time.Now().UTC()
	app, err := e.attSvc.Apply(ctx, attachment.NewApplication{
		OrganizationID: org.ID,
		Position:       "Intern Developer",
		StartDate:      now.AddDate(0, 1, 0),
		EndDate:        now.AddDate(0, 4, 0),
	}, std)
	if err != nil {
		t.Fatalf("Apply(): %v", err)
	}

	body := marchallObj(t, attachment.TransitionRequest{Status: attachment.StatusWithdrawn})
	req, rec := newAuthRequest(http.MethodPost, "/v1/applications/"+app.ID+"/transition", getToken(t, stdUsr), body)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// a withdrawn application stays withdrawn
	req, rec = newAuthRequest(http.MethodPost, "/v1/applications/"+app.ID+"/transition", getToken(t, stdUsr),
		marchallObj(t, attachment.TransitionRequest{Status: attachment.StatusSubmitted}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("resubmit after withdraw: code = %v; body %v", rec.Code, rec.Body.String())
	}
}

func Test_applicationApi_queryIsScoped(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr1, std1 := createStudent(t, e, "hero", dept)
	stdUsr2, std2 := createStudent(t, e, "rival", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)

	now := time.Now().UTC()
	newApp := attachment.NewApplication{
		OrganizationID: org.ID,
		Position:       "Intern Developer",
		StartDate:      now.AddDate(0, 1, 0),
		EndDate:        now.AddDate(0, 4, 0),
	}
	app1, err := e.attSvc.Apply(ctx, newApp, std1)
	if err != nil {
		t.Fatalf("Apply(): %v", err)
	}
	if _, err = e.attSvc.Apply(ctx, newApp, std2); err != nil {
		t.Fatalf("Apply(): %v", err)
	}

	// students only see their own
	req, rec := newAuthRequest(http.MethodGet, "/v1/applications", getToken(t, stdUsr1))
	e.app.ServeHTTP(rec, req)
	var apps []attachment.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &apps); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(apps) != 1 || apps[0].ID != app1.ID {
		t.Errorf("student query = %d applications; expected only their own", len(apps))
	}

	// a student cannot read someone else's application
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app1.ID, getToken(t, stdUsr2))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign retrieve: code = %v; expected %v", rec.Code, http.StatusNotFound)
	}

	// coordinators see everything
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications", getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	apps = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &apps); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(apps) != 2 {
		t.Errorf("coordinator query = %d applications; expected 2", len(apps))
	}
}
