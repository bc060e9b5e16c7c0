package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/user"
)

func Test_organizationApi_update(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	supUsr, _ := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)

	edited := organization.NewOrganization{
		Name:         "Safaricom PLC",
		Industry:     "Telecommunications",
		City:         "Nairobi",
		County:       "Nairobi",
		ContactName:  "Jane Achieng",
		ContactEmail: "jane.achieng@safaricom.co.ke",
		ContactPhone: "+254712345678",
		MaxStudents:  8,
	}

	// only coordinators and admins edit organizations
	req, rec := newAuthRequest(http.MethodPut, "/v1/organizations/"+org.ID, getToken(t, supUsr), marchallObj(t, edited))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("supervisor update: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/organizations/"+org.ID, getToken(t, coordinator), marchallObj(t, edited))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var updated organization.Organization
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if updated.Name != edited.Name {
		t.Errorf("Name = %q; expected %q", updated.Name, edited.Name)
	}
	if updated.MaxStudents != 8 {
		t.Errorf("MaxStudents = %d; expected 8", updated.MaxStudents)
	}

	// editing the profile does not touch the verification verdict
	if updated.VerificationStatus != organization.VerificationVerified {
		t.Errorf("VerificationStatus = %q; expected %q", updated.VerificationStatus, organization.VerificationVerified)
	}

	// unknown organizations are reported as such
	req, rec = newAuthRequest(http.MethodPut, "/v1/organizations/nope", getToken(t, coordinator), marchallObj(t, edited))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown organization: code = %v; body %v", rec.Code, rec.Body.String())
	}
}
