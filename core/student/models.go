package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarajali/core"
)

// Statuses
const (
	StatusAvailable    = "available"
	StatusOnAttachment = "on_attachment"
	StatusCompleted    = "completed"
)

type Student struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	RegistrationNumber string    `json:"registration_number"`
	Course             string    `json:"course"`
	DepartmentID       string    `json:"department_id"`
	YearOfStudy        int       `json:"year_of_study"`
	CGPA               float64   `json:"cgpa"`
	EmergencyName      string    `json:"emergency_contact_name"`
	EmergencyPhone     string    `json:"emergency_contact_phone"`
	EmergencyRelation  string    `json:"emergency_contact_relation"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC

	// read-only, populated on queries
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// NewStudent contains information needed to register a student profile.
type NewStudent struct {
	UserID             string  `json:"user_id" validate:"required"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	Course             string  `json:"course" validate:"required"`
	DepartmentID       string  `json:"department_id" validate:"required"`
	YearOfStudy        int     `json:"year_of_study" validate:"required,min=1,max=6"`
	CGPA               float64 `json:"cgpa" validate:"omitempty,min=0,max=4"`
	EmergencyName      string  `json:"emergency_contact_name"`
	EmergencyPhone     string  `json:"emergency_contact_phone" validate:"omitempty,phone"`
	EmergencyRelation  string  `json:"emergency_contact_relation"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.RegistrationNumber = core.CleanString(ns.RegistrationNumber, true /* lower */)
	ns.Course = core.CleanString(ns.Course)
	ns.EmergencyName = core.CleanString(ns.EmergencyName)
	ns.EmergencyPhone = core.CleanString(ns.EmergencyPhone)
	ns.EmergencyRelation = core.CleanString(ns.EmergencyRelation)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckRegNoUniqueness(ctx, ns.RegistrationNumber)
}

// UpdateStudent defines what a student may change on their own profile.
type UpdateStudent struct {
	Course            string  `json:"course"`
	YearOfStudy       int     `json:"year_of_study" validate:"omitempty,min=1,max=6"`
	CGPA              float64 `json:"cgpa" validate:"omitempty,min=0,max=4"`
	EmergencyName     string  `json:"emergency_contact_name"`
	EmergencyPhone    string  `json:"emergency_contact_phone" validate:"omitempty,phone"`
	EmergencyRelation string  `json:"emergency_contact_relation"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Course = core.CleanString(us.Course)
	us.EmergencyName = core.CleanString(us.EmergencyName)
	us.EmergencyPhone = core.CleanString(us.EmergencyPhone)
	us.EmergencyRelation = core.CleanString(us.EmergencyRelation)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Course       string `query:"course"`
	DepartmentID string `query:"department"`
	Status       string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Course == "" && qf.DepartmentID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Course = core.CleanString(qf.Course)
}
