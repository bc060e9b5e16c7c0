package logbook

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("logbook entry not found")
	ErrWeekExists         = errors.New("an entry already exists for this week")
	ErrNotOngoing         = errors.New("the attachment is not ongoing")
	ErrNotEditable        = errors.New("only draft and returned entries can be edited")
	ErrNotSubmitted       = errors.New("only submitted entries can be reviewed")
	ErrAlreadySubmitted   = errors.New("entry has already been submitted")
	ErrEntryNotSubmitable = errors.New("only draft and returned entries can be submitted")
	ErrWeekOutsideWindow  = errors.New("the week falls outside the attachment dates")
	ErrNotAssigned        = errors.New("you are not the assigned supervisor for this attachment")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		QueryEntries(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]Entry, error)
		GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		GetEntryByWeek(ctx context.Context, applicationID string, weekNumber int, exec ...core.DBExecutor) (Entry, error)
		UpdateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewEntry) (Entry, error)
		QueryForApplication(ctx context.Context, applicationID string) ([]Entry, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error)
		Submit(ctx context.Context, id string, actor user.User) (Entry, error)
		Review(ctx context.Context, id string, r Review, actor user.User) (Entry, error)
	}

	service struct {
		repo     Repository
		attSvc   attachment.Service
		stdSvc   student.Service
		deptSvc  department.Service
		notifier notification.Notifier
		auditRec audit.Recorder
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	attSvc attachment.Service,
	stdSvc student.Service,
	deptSvc department.Service,
	notifier notification.Notifier,
	auditRec audit.Recorder,
	logger core.Logger,
) Service {
	return &service{
		repo:     repo,
		attSvc:   attSvc,
		stdSvc:   stdSvc,
		deptSvc:  deptSvc,
		notifier: notifier,
		auditRec: auditRec,
		logger:   logger,
	}
}

func (svc *service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	app, err := svc.attSvc.GetByID(ctx, ne.ApplicationID)
	if err != nil {
		return Entry{}, err
	}
	if app.Status != attachment.StatusOngoing {
		return Entry{}, core.NewValidationError(ErrNotOngoing)
	}
	if ne.WeekStart.Before(app.StartDate) || ne.WeekEnd.After(app.EndDate) {
		return Entry{}, core.NewValidationError(ErrWeekOutsideWindow, core.FieldError{
			Field: "week_start", Error: ErrWeekOutsideWindow.Error(),
		})
	}
	if _, err = svc.repo.GetEntryByWeek(ctx, ne.ApplicationID, ne.WeekNumber); err == nil {
		return Entry{}, core.NewValidationError(ErrWeekExists, core.FieldError{
			Field: "week_number", Error: ErrWeekExists.Error(),
		})
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	return svc.repo.CreateEntry(ctx, ne.Entry())
}

func (svc *service) QueryForApplication(ctx context.Context, applicationID string) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, applicationID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	entry, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.Status != StatusDraft && entry.Status != StatusReturned {
		return Entry{}, core.NewValidationError(ErrNotEditable)
	}
	if ue.Activities != nil {
		entry.Activities = *ue.Activities
	}
	if ue.SkillsLearned != nil {
		entry.SkillsLearned = *ue.SkillsLearned
	}
	if ue.Challenges != nil {
		entry.Challenges = *ue.Challenges
	}
	if ue.LessonsLearned != nil {
		entry.LessonsLearned = *ue.LessonsLearned
	}
	entry.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEntry(ctx, entry)
}

// Submit hands a draft or returned entry over to the supervisor for review.
func (svc *service) Submit(ctx context.Context, id string, actor user.User) (Entry, error) {
	entry, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	switch entry.Status {
	case StatusDraft, StatusReturned:
	case StatusSubmitted:
		return Entry{}, core.NewValidationError(ErrAlreadySubmitted)
	default:
		return Entry{}, core.NewValidationError(ErrEntryNotSubmitable)
	}

	now := time.Now().UTC()
	entry.Status = StatusSubmitted
	entry.SubmittedAt = now
	entry.UpdatedAt = now
	if entry, err = svc.repo.UpdateEntry(ctx, entry); err != nil {
		return Entry{}, err
	}

	if app, err := svc.attSvc.GetByID(ctx, entry.ApplicationID); err != nil {
		svc.logger.Warn("looking up entry application", err)
	} else if app.SupervisorID != "" {
		if sup, err := svc.deptSvc.GetSupervisor(ctx, app.SupervisorID); err != nil {
			svc.logger.Warn("looking up entry supervisor", err)
		} else if err = svc.notifier.Notify(ctx, sup.UserID, "Logbook Entry Submitted",
			fmt.Sprintf("Week %d logbook entry awaits your review.", entry.WeekNumber),
			"/logbook/"+entry.ID); err != nil {
			svc.logger.Warn("notifying supervisor", err)
		}
	}
	if err = svc.auditRec.Record(ctx, actor.ID, "logbook.submitted", "logbook_entry", entry.ID, map[string]interface{}{
		"week_number": entry.WeekNumber,
	}); err != nil {
		svc.logger.Warn("recording logbook submission", err)
	}
	return entry, nil
}

// Review settles a submitted entry. Approval locks it; returning it reopens
// the week for the student with the supervisor's comment attached.
func (svc *service) Review(ctx context.Context, id string, r Review, actor user.User) (Entry, error) {
	entry, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.Status != StatusSubmitted {
		return Entry{}, core.NewValidationError(ErrNotSubmitted)
	}
	app, err := svc.attSvc.GetByID(ctx, entry.ApplicationID)
	if err != nil {
		return Entry{}, err
	}
	// only the assigned supervisor reviews; coordinators and admins may step in
	if !actor.IsCoordinator() && !actor.IsAdmin() {
		sup, err := svc.deptSvc.GetSupervisorByUser(ctx, actor.ID)
		if err != nil || app.SupervisorID == "" || sup.ID != app.SupervisorID {
			return Entry{}, core.NewPermissionError(ErrNotAssigned.Error())
		}
	}

	now := time.Now().UTC()
	entry.Status = r.Status
	entry.SupervisorComment = r.Comment
	entry.ReviewedAt = now
	entry.UpdatedAt = now
	if entry, err = svc.repo.UpdateEntry(ctx, entry); err != nil {
		return Entry{}, err
	}

	if std, err := svc.stdSvc.GetByID(ctx, app.StudentID); err != nil {
		svc.logger.Warn("looking up entry student", err)
	} else {
		msg := fmt.Sprintf("Your week %d logbook entry has been approved.", entry.WeekNumber)
		if entry.Status == StatusReturned {
			msg = fmt.Sprintf("Your week %d logbook entry was returned: %s", entry.WeekNumber, entry.SupervisorComment)
		}
		if err = svc.notifier.Notify(ctx, std.UserID, "Logbook Entry Reviewed", msg, "/logbook/"+entry.ID); err != nil {
			svc.logger.Warn("notifying student", err)
		}
	}
	if err = svc.auditRec.Record(ctx, actor.ID, "logbook."+entry.Status, "logbook_entry", entry.ID, map[string]interface{}{
		"week_number": entry.WeekNumber,
		"comment":     entry.SupervisorComment,
	}); err != nil {
		svc.logger.Warn("recording logbook review", err)
	}
	return entry, nil
}
