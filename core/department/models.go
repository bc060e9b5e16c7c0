package department

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarajali/core"
)

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Supervisor is a university supervisor's profile, linking a User to a Department.
type Supervisor struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DepartmentID string    `json:"department_id"`
	Title        string    `json:"title"`
	MaxStudents  int       `json:"max_students"`
	CreatedAt    time.Time `json:"created_at"` // UTC

	// read-only, populated on queries
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

type NewDepartment struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,alphanum_,max=10"`
}

func (nd *NewDepartment) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Code = core.CleanString(nd.Code, true /* lower */)

	if err := validate.Struct(nd); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nd.Code)
}

type NewSupervisor struct {
	UserID       string `json:"user_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	Title        string `json:"title"`
	MaxStudents  int    `json:"max_students" validate:"omitempty,min=1,max=50"`
}

func (ns *NewSupervisor) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	return validate.Struct(ns)
}
