package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/tarajali/core/document"
	"github.com/trezcool/tarajali/core/user"
)

func Test_documentApi_ownership(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	otherUsr, _ := createStudent(t, e, "sidekick", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)
	app := placeOngoing(t, e, stdUsr, supUsr, coordinator, std, sup, org)

	studentToken := getToken(t, stdUsr)
	newDoc := document.NewDocument{
		ApplicationID: app.ID,
		Kind:          document.KindOfferLetter,
		Title:         "Offer Letter",
		Description:   "Signed attachment offer from the host organization",
		FileName:      "offer.pdf",
		FilePath:      "uploads/hero/offer.pdf",
		ContentType:   "application/pdf",
		SizeBytes:     52_431,
	}

	// unknown kinds are refused
	bad := newDoc
	bad.Kind = "selfie"
	req, rec := newAuthRequest(http.MethodPost, "/v1/documents", studentToken, marchallObj(t, bad))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/documents", studentToken, marchallObj(t, newDoc))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var doc document.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if doc.OwnerID != stdUsr.ID {
		t.Errorf("OwnerID = %q; expected %q", doc.OwnerID, stdUsr.ID)
	}

	// owners see their catalogue
	req, rec = newAuthRequest(http.MethodGet, "/v1/documents", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query mine: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var docs []document.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("docs = %d; expected 1", len(docs))
	}

	// other students cannot see or delete it
	otherToken := getToken(t, otherUsr)
	req, rec = newAuthRequest(http.MethodGet, "/v1/documents/"+doc.ID, otherToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign retrieve: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID, otherToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign destroy: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// staff may inspect the application's documents; the owner may not use that route
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/documents", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student app documents: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/documents", getToken(t, supUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("staff app documents: code = %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("app docs = %d; expected 1", len(docs))
	}

	// owners can delete
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID, studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy: code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/documents/"+doc.ID, studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("retrieve after destroy: code = %v; body %v", rec.Code, rec.Body.String())
	}
}
