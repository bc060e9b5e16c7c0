package attachment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
)

type (
	// Period is an academic attachment window during which applications are
	// received and attachments run.
	Period struct {
		ID                  string    `json:"id"`
		Name                string    `json:"name"`
		StartDate           time.Time `json:"start_date"`
		EndDate             time.Time `json:"end_date"`
		ApplicationDeadline time.Time `json:"application_deadline"`
		IsActive            bool      `json:"is_active"`
		CreatedAt           time.Time `json:"created_at"`
	}

	NewPeriod struct {
		Name                string    `json:"name" validate:"required"`
		StartDate           time.Time `json:"start_date" validate:"required"`
		EndDate             time.Time `json:"end_date" validate:"required"`
		ApplicationDeadline time.Time `json:"application_deadline" validate:"required"`
		IsActive            bool      `json:"is_active"`
	}

	// Application is a student's request to be attached to a host
	// organization for a period.
	Application struct {
		ID             string    `json:"id"`
		StudentID      string    `json:"student_id"`
		OrganizationID string    `json:"organization_id"`
		PeriodID       string    `json:"period_id"`
		SupervisorID   string    `json:"supervisor_id,omitempty"`
		Position       string    `json:"position"`
		CoverNote      string    `json:"cover_note,omitempty"`
		StartDate      time.Time `json:"start_date"`
		EndDate        time.Time `json:"end_date"`
		Status         Status    `json:"status"`
		StatusReason   string    `json:"status_reason,omitempty"`
		SubmittedAt    time.Time `json:"submitted_at,omitempty"`
		DecidedAt      time.Time `json:"decided_at,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`

		// read-only joins
		StudentName      string `json:"student_name,omitempty"`
		StudentRegNo     string `json:"student_reg_no,omitempty"`
		OrganizationName string `json:"organization_name,omitempty"`
		SupervisorName   string `json:"supervisor_name,omitempty"`
	}

	NewApplication struct {
		OrganizationID string    `json:"organization_id" validate:"required"`
		PeriodID       string    `json:"period_id"`
		Position       string    `json:"position" validate:"required"`
		CoverNote      string    `json:"cover_note"`
		StartDate      time.Time `json:"start_date" validate:"required"`
		EndDate        time.Time `json:"end_date" validate:"required"`
	}

	// UpdateApplication edits a draft before submission.
	UpdateApplication struct {
		Position  *string    `json:"position"`
		CoverNote *string    `json:"cover_note"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}

	// TransitionRequest moves an application to a new status. Reason is
	// mandatory for rejections and terminations.
	TransitionRequest struct {
		Status Status `json:"status" validate:"required"`
		Reason string `json:"reason"`
	}

	// Placement assigns a department supervisor when moving an approved
	// application to placed.
	Placement struct {
		SupervisorID string `json:"supervisor_id" validate:"required"`
	}

	QueryFilter struct {
		StudentID      string `query:"student_id"`
		OrganizationID string `query:"organization_id"`
		PeriodID       string `query:"period_id"`
		SupervisorID   string `query:"supervisor_id"`
		Status         Status `query:"status"`
		Search         string `query:"search"`
	}
)

func (np *NewPeriod) Validate(ctx context.Context, validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	if err := validate.StructCtx(ctx, np); err != nil {
		return err
	}
	if err := core.ValidateDateOrder(np.StartDate, np.EndDate, "end_date"); err != nil {
		return err
	}
	if np.ApplicationDeadline.After(np.StartDate) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "application_deadline", Error: "application deadline must not be after the start date",
		})
	}
	return nil
}

func (np NewPeriod) Period() Period {
	return Period{
		ID:                  uuid.New().String(),
		Name:                np.Name,
		StartDate:           np.StartDate,
		EndDate:             np.EndDate,
		ApplicationDeadline: np.ApplicationDeadline,
		IsActive:            np.IsActive,
		CreatedAt:           time.Now().UTC(),
	}
}

func (na *NewApplication) Validate(ctx context.Context, validate *validator.Validate) error {
	na.Position = core.CleanString(na.Position)
	na.CoverNote = core.CleanString(na.CoverNote)
	if err := validate.StructCtx(ctx, na); err != nil {
		return err
	}
	return core.ValidateDateOrder(na.StartDate, na.EndDate, "end_date")
}

func (na NewApplication) Application(studentID string) Application {
	now := time.Now().UTC()
	return Application{
		ID:             uuid.New().String(),
		StudentID:      studentID,
		OrganizationID: na.OrganizationID,
		PeriodID:       na.PeriodID,
		Position:       na.Position,
		CoverNote:      na.CoverNote,
		StartDate:      na.StartDate,
		EndDate:        na.EndDate,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (ua *UpdateApplication) Validate(ctx context.Context, validate *validator.Validate, app Application) error {
	if ua.Position != nil {
		*ua.Position = core.CleanString(*ua.Position)
		if *ua.Position == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "position", Error: "this field may not be blank"})
		}
	}
	if ua.CoverNote != nil {
		*ua.CoverNote = core.CleanString(*ua.CoverNote)
	}
	start, end := app.StartDate, app.EndDate
	if ua.StartDate != nil {
		start = *ua.StartDate
	}
	if ua.EndDate != nil {
		end = *ua.EndDate
	}
	return core.ValidateDateOrder(start, end, "end_date")
}

func (tr *TransitionRequest) Validate(ctx context.Context, validate *validator.Validate) error {
	tr.Reason = core.CleanString(tr.Reason)
	if err := validate.StructCtx(ctx, tr); err != nil {
		return err
	}
	if !tr.Status.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	if tr.Status.RequiresReason() && tr.Reason == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "reason", Error: "a reason is required for this status"})
	}
	return nil
}

// Progress derives completion as a percentage of the attachment window.
func (app *Application) Progress(now time.Time) int {
	switch {
	case app.Status == StatusCompleted:
		return 100
	case app.Status != StatusOngoing:
		return 0
	case !now.After(app.StartDate):
		return 0
	case !now.Before(app.EndDate):
		return 100
	}
	total := app.EndDate.Sub(app.StartDate)
	if total <= 0 {
		return 100
	}
	return int(float64(now.Sub(app.StartDate)) / float64(total) * 100)
}

func (f *QueryFilter) Clean() {
	f.StudentID = core.CleanString(f.StudentID)
	f.OrganizationID = core.CleanString(f.OrganizationID)
	f.PeriodID = core.CleanString(f.PeriodID)
	f.SupervisorID = core.CleanString(f.SupervisorID)
	f.Status = Status(core.CleanString(string(f.Status), true))
	f.Search = core.CleanString(f.Search)
}

func (f QueryFilter) IsEmpty() bool {
	return f == QueryFilter{}
}
