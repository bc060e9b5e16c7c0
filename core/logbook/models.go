package logbook

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
)

// Entry statuses
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusReturned  = "returned"
)

type (
	// Entry is one week's logbook record for an ongoing attachment. A week
	// number is unique per application.
	Entry struct {
		ID                string    `json:"id"`
		ApplicationID     string    `json:"application_id"`
		WeekNumber        int       `json:"week_number"`
		WeekStart         time.Time `json:"week_start"`
		WeekEnd           time.Time `json:"week_end"`
		Activities        string    `json:"activities"`
		SkillsLearned     string    `json:"skills_learned,omitempty"`
		Challenges        string    `json:"challenges,omitempty"`
		LessonsLearned    string    `json:"lessons_learned,omitempty"`
		Status            string    `json:"status"`
		SupervisorComment string    `json:"supervisor_comment,omitempty"`
		SubmittedAt       time.Time `json:"submitted_at,omitempty"`
		ReviewedAt        time.Time `json:"reviewed_at,omitempty"`
		CreatedAt         time.Time `json:"created_at"`
		UpdatedAt         time.Time `json:"updated_at"`
	}

	NewEntry struct {
		ApplicationID  string    `json:"application_id" validate:"required"`
		WeekNumber     int       `json:"week_number" validate:"required,min=1,max=52"`
		WeekStart      time.Time `json:"week_start" validate:"required"`
		WeekEnd        time.Time `json:"week_end" validate:"required"`
		Activities     string    `json:"activities" validate:"required"`
		SkillsLearned  string    `json:"skills_learned"`
		Challenges     string    `json:"challenges"`
		LessonsLearned string    `json:"lessons_learned"`
	}

	UpdateEntry struct {
		Activities     *string `json:"activities"`
		SkillsLearned  *string `json:"skills_learned"`
		Challenges     *string `json:"challenges"`
		LessonsLearned *string `json:"lessons_learned"`
	}

	// Review is a supervisor's verdict on a submitted entry. A returned
	// entry must carry a comment telling the student what to fix.
	Review struct {
		Status  string `json:"status" validate:"required,oneof=approved returned"`
		Comment string `json:"comment" validate:"required_if=Status returned"`
	}
)

func (ne *NewEntry) Validate(ctx context.Context, validate *validator.Validate) error {
	ne.Activities = core.CleanString(ne.Activities)
	ne.SkillsLearned = core.CleanString(ne.SkillsLearned)
	ne.Challenges = core.CleanString(ne.Challenges)
	ne.LessonsLearned = core.CleanString(ne.LessonsLearned)
	if err := validate.StructCtx(ctx, ne); err != nil {
		return err
	}
	return core.ValidateDateOrder(ne.WeekStart, ne.WeekEnd, "week_end")
}

func (ne NewEntry) Entry() Entry {
	now := time.Now().UTC()
	return Entry{
		ID:             uuid.New().String(),
		ApplicationID:  ne.ApplicationID,
		WeekNumber:     ne.WeekNumber,
		WeekStart:      ne.WeekStart,
		WeekEnd:        ne.WeekEnd,
		Activities:     ne.Activities,
		SkillsLearned:  ne.SkillsLearned,
		Challenges:     ne.Challenges,
		LessonsLearned: ne.LessonsLearned,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (ue *UpdateEntry) Validate(ctx context.Context, validate *validator.Validate) error {
	if ue.Activities != nil {
		*ue.Activities = core.CleanString(*ue.Activities)
		if *ue.Activities == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "activities", Error: "this field may not be blank"})
		}
	}
	if ue.SkillsLearned != nil {
		*ue.SkillsLearned = core.CleanString(*ue.SkillsLearned)
	}
	if ue.Challenges != nil {
		*ue.Challenges = core.CleanString(*ue.Challenges)
	}
	if ue.LessonsLearned != nil {
		*ue.LessonsLearned = core.CleanString(*ue.LessonsLearned)
	}
	return nil
}

func (r *Review) Validate(ctx context.Context, validate *validator.Validate) error {
	r.Comment = core.CleanString(r.Comment)
	return validate.StructCtx(ctx, r)
}
