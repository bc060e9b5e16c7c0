package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/user"
)

func Test_notificationApi_workflowNotifies(t *testing.T) {
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
	if _, err = e.attSvc.Transition(ctx, app.ID, attachment.TransitionRequest{Status: attachment.StatusSubmitted}, stdUsr); err != nil {
		t.Fatalf("Transition(): %v", err)
	}
	if _, err = e.attSvc.Transition(ctx, app.ID, attachment.TransitionRequest{Status: attachment.StatusVerified}, coordinator); err != nil {
		t.Fatalf("Transition(): %v", err)
	}

	// verification notifies the applicant
	studentToken := getToken(t, stdUsr)
	req, rec := newAuthRequest(http.MethodGet, "/v1/notifications?unread=true", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var notifs []notification.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(notifs) == 0 {
		t.Fatal("no notifications; expected at least one from the status change")
	}
	for _, notif := range notifs {
		if notif.UserID != stdUsr.ID {
			t.Errorf("UserID = %q; expected %q", notif.UserID, stdUsr.ID)
		}
		if notif.IsRead {
			t.Errorf("IsRead = true on %q; expected false", notif.Title)
		}
	}
}

func Test_notificationApi_markRead(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	otherUsr, _ := createStudent(t, e, "sidekick", dept)

	notify := func(title string) {
		t.Helper()
		if err := e.notifSvc.Notify(ctx, stdUsr.ID, title, "Something happened.", "/applications"); err != nil {
			t.Fatalf("Notify(): %v", err)
		}
	}
	notify("First")
	notify("Second")

	studentToken := getToken(t, stdUsr)
	unread := func() int {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", studentToken)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("unread-count: code = %v; body %v", rec.Code, rec.Body.String())
		}
		var res struct {
			Unread int `json:"unread"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return res.Unread
	}

	if n := unread(); n != 2 {
		t.Fatalf("unread = %d; expected 2", n)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var notifs []notification.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("notifs = %d; expected 2", len(notifs))
	}

	// only the owner can mark it read
	req, rec = newAuthRequest(http.MethodPost, "/v1/notifications/"+notifs[0].ID+"/read", getToken(t, otherUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign mark read: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/notifications/"+notifs[0].ID+"/read", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var notif notification.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notif); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !notif.IsRead {
		t.Error("IsRead = false; expected true")
	}
	if n := unread(); n != 1 {
		t.Fatalf("unread = %d; expected 1", n)
	}

	// read-all clears the rest
	req, rec = newAuthRequest(http.MethodPost, "/v1/notifications/read-all", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("read-all: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var res struct {
		Marked int `json:"marked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if res.Marked != 1 {
		t.Errorf("marked = %d; expected 1", res.Marked)
	}
	if n := unread(); n != 0 {
		t.Fatalf("unread = %d; expected 0", n)
	}
}
