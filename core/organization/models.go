package organization

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarajali/core"
)

// Verification statuses
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type Organization struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	CompanyType        string `json:"company_type"`
	Industry           string `json:"industry"`
	PhysicalAddress    string `json:"physical_address"`
	City               string `json:"city"`
	County             string `json:"county"`
	Website            string `json:"website"`
	KRAPin             string `json:"kra_pin"`

	ContactName  string `json:"contact_person_name"`
	ContactTitle string `json:"contact_person_title"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`

	YearEstablished int `json:"year_established"`
	EmployeeCount   int `json:"employee_count"`
	MaxStudents     int `json:"max_students"`

	ProvidesStipend       bool    `json:"provides_stipend"`
	StipendAmount         float64 `json:"stipend_amount"`
	ProvidesAccommodation bool    `json:"provides_accommodation"`
	AccommodationDetails  string  `json:"accommodation_details"`

	// industry-side supervisor contact
	SupervisorName  string `json:"industry_supervisor_name"`
	SupervisorTitle string `json:"industry_supervisor_title"`
	SupervisorEmail string `json:"industry_supervisor_email"`
	SupervisorPhone string `json:"industry_supervisor_phone"`

	VerificationStatus string `json:"verification_status"`
	RejectionReason    string `json:"rejection_reason"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (org *Organization) IsVerified() bool {
	return org.VerificationStatus == VerificationVerified
}

// NewOrganization contains information needed to register a host organization.
type NewOrganization struct {
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registration_number"`
	CompanyType        string `json:"company_type" validate:"omitempty,oneof=private public ngo parastatal sme"`
	Industry           string `json:"industry" validate:"required"`
	PhysicalAddress    string `json:"physical_address"`
	City               string `json:"city" validate:"required"`
	County             string `json:"county"`
	Website            string `json:"website" validate:"omitempty,url"`
	KRAPin             string `json:"kra_pin"`

	ContactName  string `json:"contact_person_name" validate:"required"`
	ContactTitle string `json:"contact_person_title"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"required,phone"`

	YearEstablished int `json:"year_established" validate:"omitempty,min=1900,max=2100"`
	EmployeeCount   int `json:"employee_count" validate:"omitempty,min=1"`
	MaxStudents     int `json:"max_students" validate:"omitempty,min=1,max=100"`

	ProvidesStipend       bool    `json:"provides_stipend"`
	StipendAmount         float64 `json:"stipend_amount" validate:"omitempty,min=0"`
	ProvidesAccommodation bool    `json:"provides_accommodation"`
	AccommodationDetails  string  `json:"accommodation_details"`

	SupervisorName  string `json:"industry_supervisor_name"`
	SupervisorTitle string `json:"industry_supervisor_title"`
	SupervisorEmail string `json:"industry_supervisor_email" validate:"omitempty,email"`
	SupervisorPhone string `json:"industry_supervisor_phone" validate:"omitempty,phone"`
}

func (no *NewOrganization) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	no.RegistrationNumber = core.CleanString(no.RegistrationNumber)
	no.Industry = core.CleanString(no.Industry)
	no.City = core.CleanString(no.City)
	no.County = core.CleanString(no.County)
	no.ContactName = core.CleanString(no.ContactName)
	no.ContactEmail = core.CleanString(no.ContactEmail, true /* lower */)
	no.SupervisorEmail = core.CleanString(no.SupervisorEmail, true /* lower */)
	return validate.Struct(no)
}

// Verification is a coordinator's verdict on a pending Organization.
type Verification struct {
	Status string `json:"verification_status" validate:"required,oneof=verified rejected"`
	Reason string `json:"rejection_reason" validate:"required_if=Status rejected"`
}

func (v *Verification) Validate(validate *validator.Validate) error {
	v.Reason = core.CleanString(v.Reason)
	if err := validate.Struct(v); err != nil {
		return err
	}
	if v.Status == VerificationRejected && v.Reason == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "rejection_reason", Error: "a rejection reason is required"})
	}
	return nil
}

type QueryFilter struct {
	Search             string `query:"search"`
	Industry           string `query:"industry"`
	City               string `query:"city"`
	County             string `query:"county"`
	VerificationStatus string `query:"verification_status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Industry == "" && qf.City == "" && qf.County == "" && qf.VerificationStatus == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Industry = core.CleanString(qf.Industry)
	qf.City = core.CleanString(qf.City)
	qf.County = core.CleanString(qf.County)
}
