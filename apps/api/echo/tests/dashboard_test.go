package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/user"
)

func Test_dashboardApi_stats(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	createStudent(t, e, "sidekick", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)
	placeOngoing(t, e, stdUsr, supUsr, coordinator, std, sup, org)

	// students see their own attachment, not the institution-wide numbers
	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, stdUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("student stats: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var stdStats struct {
		Applications map[attachment.Status]int `json:"applications"`
		Progress     int                       `json:"attachment_progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stdStats); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if stdStats.Applications[attachment.StatusOngoing] != 1 {
		t.Errorf("student ongoing applications = %d; expected 1", stdStats.Applications[attachment.StatusOngoing])
	}
	if stdStats.Progress <= 0 || stdStats.Progress > 100 {
		t.Errorf("Progress = %d; expected within (0, 100]", stdStats.Progress)
	}

	// supervisors see their assigned caseload
	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, supUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("supervisor stats: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var supStats struct {
		Assigned       map[attachment.Status]int `json:"assigned_applications"`
		PendingReviews int                       `json:"pending_logbook_reviews"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &supStats); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if supStats.Assigned[attachment.StatusOngoing] != 1 {
		t.Errorf("assigned ongoing = %d; expected 1", supStats.Assigned[attachment.StatusOngoing])
	}
	if supStats.PendingReviews != 0 {
		t.Errorf("PendingReviews = %d; expected 0", supStats.PendingReviews)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var stats struct {
		Applications  map[attachment.Status]int `json:"applications"`
		Students      int                       `json:"students"`
		OnAttachment  int                       `json:"students_on_attachment"`
		Organizations int                       `json:"organizations_verified"`
		PendingOrgs   int                       `json:"organizations_pending"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if stats.Students != 2 {
		t.Errorf("Students = %d; expected 2", stats.Students)
	}
	if stats.OnAttachment != 1 {
		t.Errorf("OnAttachment = %d; expected 1", stats.OnAttachment)
	}
	if stats.Organizations != 1 {
		t.Errorf("Organizations = %d; expected 1", stats.Organizations)
	}
	if stats.Applications[attachment.StatusOngoing] != 1 {
		t.Errorf("ongoing applications = %d; expected 1", stats.Applications[attachment.StatusOngoing])
	}
}

func Test_dashboardApi_audit(t *testing.T) {
	e := setup(t)

	admin := createUser(t, e, "Admin", "admin", user.AdminRoles)
	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	org := createOrganization(t, e, "Safaricom", coordinator)

	// admins only
	req, rec := newAuthRequest(http.MethodGet, "/v1/audit", getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("coordinator audit: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/audit?object_type=organization&object_id="+org.ID, getToken(t, admin))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var logs []audit.Log
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("no audit logs; expected the verification to be recorded")
	}
	for _, entry := range logs {
		if entry.ObjectID != org.ID {
			t.Errorf("ObjectID = %q; expected %q", entry.ObjectID, org.ID)
		}
	}
}
