package announcement

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/user"
)

var ErrNotFound = errors.New("announcement not found")

// Priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type (
	// Announcement is a broadcast to a set of roles. It is visible from
	// PublishAt until ExpiresAt; a zero ExpiresAt never expires.
	Announcement struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Body        string    `json:"body"`
		Priority    string    `json:"priority"`
		TargetRoles []string  `json:"target_roles,omitempty"`
		PublishAt   time.Time `json:"publish_at"`
		ExpiresAt   time.Time `json:"expires_at,omitempty"`
		CreatedBy   string    `json:"created_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	NewAnnouncement struct {
		Title       string    `json:"title" validate:"required"`
		Body        string    `json:"body" validate:"required"`
		Priority    string    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
		TargetRoles []string  `json:"target_roles" validate:"omitempty,allroles"`
		PublishAt   time.Time `json:"publish_at"`
		ExpiresAt   time.Time `json:"expires_at"`
	}

	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]Announcement, error)
		GetAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) (Announcement, error)
		UpdateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, na NewAnnouncement, author user.User) (Announcement, error)
		QueryAll(ctx context.Context) ([]Announcement, error)
		QueryActiveFor(ctx context.Context, usr user.User) ([]Announcement, error)
		GetByID(ctx context.Context, id string) (Announcement, error)
		Update(ctx context.Context, id string, na NewAnnouncement, actor user.User) (Announcement, error)
		Delete(ctx context.Context, id string, actor user.User) error
	}

	service struct {
		repo     Repository
		auditRec audit.Recorder
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, auditRec audit.Recorder, logger core.Logger) Service {
	return &service{repo: repo, auditRec: auditRec, logger: logger}
}

func (na *NewAnnouncement) Validate(ctx context.Context, validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	na.Priority = core.CleanString(na.Priority, true)
	if err := validate.StructCtx(ctx, na); err != nil {
		return err
	}
	if !na.ExpiresAt.IsZero() {
		publishAt := na.PublishAt
		if publishAt.IsZero() {
			publishAt = time.Now().UTC()
		}
		if !na.ExpiresAt.After(publishAt) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "expires_at", Error: "expiry must be after publication",
			})
		}
	}
	return nil
}

// IsActive reports whether the announcement is within its visibility window.
func (ann *Announcement) IsActive(now time.Time) bool {
	if now.Before(ann.PublishAt) {
		return false
	}
	return ann.ExpiresAt.IsZero() || now.Before(ann.ExpiresAt)
}

// Targets reports whether the announcement addresses the user. Empty target
// roles mean everyone; admins see everything.
func (ann *Announcement) Targets(usr user.User) bool {
	if len(ann.TargetRoles) == 0 || usr.IsAdmin() {
		return true
	}
	for _, role := range ann.TargetRoles {
		if usr.RoleStartsWith(role) {
			return true
		}
	}
	return false
}

func (svc *service) Create(ctx context.Context, na NewAnnouncement, author user.User) (Announcement, error) {
	now := time.Now().UTC()
	publishAt := na.PublishAt
	if publishAt.IsZero() {
		publishAt = now
	}
	priority := na.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	ann := Announcement{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Body:        na.Body,
		Priority:    priority,
		TargetRoles: na.TargetRoles,
		PublishAt:   publishAt,
		ExpiresAt:   na.ExpiresAt,
		CreatedBy:   author.ID,
		CreatedAt:   now,
	}
	ann, err := svc.repo.CreateAnnouncement(ctx, ann)
	if err != nil {
		return Announcement{}, err
	}
	if err = svc.auditRec.Record(ctx, author.ID, "announcement.created", "announcement", ann.ID, map[string]interface{}{
		"title":    ann.Title,
		"priority": ann.Priority,
	}); err != nil {
		svc.logger.Warn("recording announcement creation", err)
	}
	return ann, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx)
}

func (svc *service) QueryActiveFor(ctx context.Context, usr user.User) ([]Announcement, error) {
	anns, err := svc.repo.QueryAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	active := make([]Announcement, 0, len(anns))
	for _, ann := range anns {
		if ann.IsActive(now) && ann.Targets(usr) {
			active = append(active, ann)
		}
	}
	return active, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, na NewAnnouncement, actor user.User) (Announcement, error) {
	ann, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}

	ann.Title = na.Title
	ann.Body = na.Body
	if na.Priority != "" {
		ann.Priority = na.Priority
	}
	ann.TargetRoles = na.TargetRoles
	if !na.PublishAt.IsZero() {
		ann.PublishAt = na.PublishAt
	}
	ann.ExpiresAt = na.ExpiresAt

	if ann, err = svc.repo.UpdateAnnouncement(ctx, ann); err != nil {
		return Announcement{}, err
	}
	if err = svc.auditRec.Record(ctx, actor.ID, "announcement.updated", "announcement", ann.ID, map[string]interface{}{
		"title":    ann.Title,
		"priority": ann.Priority,
	}); err != nil {
		svc.logger.Warn("recording announcement update", err)
	}
	return ann, nil
}

func (svc *service) Delete(ctx context.Context, id string, actor user.User) error {
	if err := svc.repo.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	if err := svc.auditRec.Record(ctx, actor.ID, "announcement.deleted", "announcement", id, nil); err != nil {
		svc.logger.Warn("recording announcement deletion", err)
	}
	return nil
}
