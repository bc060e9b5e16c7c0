package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/logbook"
	"github.com/trezcool/tarajali/core/user"
)

func Test_logbookApi_weeklyCycle(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)
	app := placeOngoing(t, e, stdUsr, supUsr, coordinator, std, sup, org)

	studentToken := getToken(t, stdUsr)
	supToken := getToken(t, supUsr)

	now := time.Now().UTC()
	newEntry := logbook.NewEntry{
		ApplicationID: app.ID,
		WeekNumber:    1,
		WeekStart:     now.AddDate(0, 0, -6),
		WeekEnd:       now,
		Activities:    "Set up the dev environment and shadowed the team.",
	}

	// create
	req, rec := newAuthRequest(http.MethodPost, "/v1/logbook", studentToken, marchallObj(t, newEntry))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var entry logbook.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if entry.Status != logbook.StatusDraft {
		t.Errorf("Status = %v; expected %v", entry.Status, logbook.StatusDraft)
	}

	// one entry per week
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook", studentToken, marchallObj(t, newEntry))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate week: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// weeks must fall within the attachment dates
	outside := newEntry
	outside.WeekNumber = 2
	outside.WeekStart = now.AddDate(-5, 0, 0)
	outside.WeekEnd = outside.WeekStart.AddDate(0, 0, 6)
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook", studentToken, marchallObj(t, outside))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("week before attachment: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// review before submission is refused
	review := marchallObj(t, logbook.Review{Status: logbook.StatusApproved})
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", supToken, review)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("early review: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// submit
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/submit", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// submitted entries are frozen
	activities := "rewriting history"
	req, rec = newAuthRequest(http.MethodPut, "/v1/logbook/"+entry.ID, studentToken,
		marchallObj(t, logbook.UpdateEntry{Activities: &activities}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("edit after submit: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// students cannot review
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", studentToken, review)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student review: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// neither can a supervisor who is not assigned to the attachment
	rivalUsr, _ := createSupervisor(t, e, "rival", dept)
	rivalToken := getToken(t, rivalUsr)
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", rivalToken, review)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unassigned review: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/logbook/"+entry.ID, rivalToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unassigned retrieve: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// returning an entry requires a comment
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", supToken,
		marchallObj(t, logbook.Review{Status: logbook.StatusReturned}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("return without comment: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// return with a comment, then the student may fix and resubmit
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", supToken,
		marchallObj(t, logbook.Review{Status: logbook.StatusReturned, Comment: "More detail on the activities please."}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("return: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/submit", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// approve
	req, rec = newAuthRequest(http.MethodPost, "/v1/logbook/"+entry.ID+"/review", supToken, review)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code = %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if entry.Status != logbook.StatusApproved {
		t.Errorf("Status = %v; expected %v", entry.Status, logbook.StatusApproved)
	}

	// listing for the application
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/logbook", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var entries []logbook.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d; expected 1", len(entries))
	}
}

func Test_logbookApi_requiresOngoingAttachment(t *testing.T) {
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
		Position:       "Intern",
		StartDate:      now.AddDate(0, 1, 0),
		EndDate:        now.AddDate(0, 4, 0),
	}, std)
	if err != nil {
		t.Fatalf("Apply(): %v", err)
	}

	newEntry := logbook.NewEntry{
		ApplicationID: app.ID,
		WeekNumber:    1,
		WeekStart:     now.AddDate(0, 0, -6),
		WeekEnd:       now,
		Activities:    "Week one.",
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/logbook", getToken(t, stdUsr), marchallObj(t, newEntry))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("draft application: code = %v; body %v", rec.Code, rec.Body.String())
	}
}
