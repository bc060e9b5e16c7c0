package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/tarajali/core/announcement"
	"github.com/trezcool/tarajali/core/user"
)

func Test_announcementApi_create(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)

	coordToken := getToken(t, coordinator)
	newAnn := announcement.NewAnnouncement{
		Title:    "Attachment Briefing",
		Body:     "All students report to the main hall on Monday.",
		Priority: announcement.PriorityHigh,
	}

	// only coordinators and admins publish
	req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", getToken(t, stdUsr), marchallObj(t, newAnn))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student create: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// expiry cannot precede publication
	bad := newAnn
	bad.PublishAt = time.Now().UTC().AddDate(0, 0, 7)
	bad.ExpiresAt = time.Now().UTC().AddDate(0, 0, 1)
	req, rec = newAuthRequest(http.MethodPost, "/v1/announcements", coordToken, marchallObj(t, bad))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expiry before publish: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/announcements", coordToken, marchallObj(t, newAnn))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ann announcement.Announcement
	if err := json.Unmarshal(rec.Body.Bytes(), &ann); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if ann.CreatedBy != coordinator.ID {
		t.Errorf("CreatedBy = %q; expected %q", ann.CreatedBy, coordinator.ID)
	}
	if ann.PublishAt.IsZero() {
		t.Error("PublishAt is zero; expected it defaulted to now")
	}

	// edits go through the same gate
	edited := newAnn
	edited.Title = "Attachment Briefing (Rescheduled)"
	req, rec = newAuthRequest(http.MethodPut, "/v1/announcements/"+ann.ID, getToken(t, stdUsr), marchallObj(t, edited))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student update: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/announcements/"+ann.ID, coordToken, marchallObj(t, edited))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: code = %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ann); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if ann.Title != edited.Title {
		t.Errorf("Title = %q; expected %q", ann.Title, edited.Title)
	}
}

func Test_announcementApi_visibility(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	admin := createUser(t, e, "Admin", "admin", user.AdminRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	supUsr, _ := createSupervisor(t, e, "prof", dept)

	now := time.Now().UTC()
	mustCreate := func(na announcement.NewAnnouncement) {
		t.Helper()
		if _, err := e.annSvc.Create(ctx, na, coordinator); err != nil {
			t.Fatalf("Create(): %v", err)
		}
	}
	mustCreate(announcement.NewAnnouncement{Title: "For everyone", Body: "General notice."})
	mustCreate(announcement.NewAnnouncement{
		Title: "Students only", Body: "Logbook deadline.", TargetRoles: []string{user.RoleStudent},
	})
	mustCreate(announcement.NewAnnouncement{
		Title: "Not yet", Body: "Scheduled.", PublishAt: now.AddDate(0, 0, 7),
	})
	mustCreate(announcement.NewAnnouncement{
		Title: "Expired", Body: "Old news.", PublishAt: now.AddDate(0, 0, -14), ExpiresAt: now.AddDate(0, 0, -7),
	})

	visible := func(token string) []announcement.Announcement {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", token)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query: code = %v; body %v", rec.Code, rec.Body.String())
		}
		var anns []announcement.Announcement
		if err := json.Unmarshal(rec.Body.Bytes(), &anns); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return anns
	}

	if anns := visible(getToken(t, stdUsr)); len(anns) != 2 {
		t.Errorf("student sees %d; expected 2", len(anns))
	}
	if anns := visible(getToken(t, supUsr)); len(anns) != 1 {
		t.Errorf("supervisor sees %d; expected 1", len(anns))
	}
	// admins see every targeted one, the window still applies
	if anns := visible(getToken(t, admin)); len(anns) != 2 {
		t.Errorf("admin sees %d; expected 2", len(anns))
	}

	// the full list is staff-side
	req, rec := newAuthRequest(http.MethodGet, "/v1/announcements/all", getToken(t, stdUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student query all: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/announcements/all", getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query all: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var anns []announcement.Announcement
	if err := json.Unmarshal(rec.Body.Bytes(), &anns); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(anns) != 4 {
		t.Errorf("all = %d; expected 4", len(anns))
	}
}

func Test_announcementApi_destroy(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	ann, err := e.annSvc.Create(ctx, announcement.NewAnnouncement{
		Title: "Oops", Body: "Posted by mistake.",
	}, coordinator)
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	req, rec := newAuthRequest(http.MethodDelete, "/v1/announcements/"+ann.ID, getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/announcements/"+ann.ID, getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("retrieve after destroy: code = %v; body %v", rec.Code, rec.Body.String())
	}
}
