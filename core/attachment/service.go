package attachment

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

var (
	// errors
	ErrNotFound                = errors.New("application not found")
	ErrPeriodNotFound          = errors.New("attachment period not found")
	ErrNoActivePeriod          = errors.New("no active attachment period")
	ErrDeadlinePassed          = errors.New("the application deadline has passed")
	ErrOpenApplicationExists   = errors.New("an open application already exists for this period")
	ErrOrganizationNotVerified = errors.New("organization is not verified")
	ErrInvalidTransition       = errors.New("transition not allowed from the current status")
	ErrNotDraft                = errors.New("only draft applications can be edited")
	ErrSupervisorRequired      = errors.New("a supervisor must be assigned before placement")
	ErrSupervisorFull          = errors.New("supervisor has reached their student limit")
)

type (
	Repository interface {
		CreatePeriod(ctx context.Context, period Period, exec ...core.DBExecutor) (Period, error)
		QueryPeriods(ctx context.Context, exec ...core.DBExecutor) ([]Period, error)
		GetPeriod(ctx context.Context, id string, exec ...core.DBExecutor) (Period, error)
		GetActivePeriod(ctx context.Context, exec ...core.DBExecutor) (Period, error)
		DeactivatePeriods(ctx context.Context, exec ...core.DBExecutor) error

		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		QueryApplications(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Application, error)
		GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (Application, error)
		UpdateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		HasOpenApplication(ctx context.Context, studentID, periodID string, exec ...core.DBExecutor) (bool, error)
		CountActiveByOrganization(ctx context.Context, orgID string, exec ...core.DBExecutor) (int, error)
		CountActiveBySupervisor(ctx context.Context, supervisorID string, exec ...core.DBExecutor) (int, error)
		CountApplicationsByStatus(ctx context.Context, exec ...core.DBExecutor) (map[Status]int, error)
	}

	Service interface {
		CreatePeriod(ctx context.Context, np NewPeriod) (Period, error)
		QueryPeriods(ctx context.Context) ([]Period, error)
		GetPeriod(ctx context.Context, id string) (Period, error)
		ActivePeriod(ctx context.Context) (Period, error)

		Apply(ctx context.Context, na NewApplication, std student.Student) (Application, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Application, error)
		GetByID(ctx context.Context, id string) (Application, error)
		Update(ctx context.Context, id string, ua UpdateApplication) (Application, error)
		Transition(ctx context.Context, id string, tr TransitionRequest, actor user.User) (Application, error)
		Place(ctx context.Context, id string, p Placement, actor user.User) (Application, error)
		Progress(ctx context.Context, id string) (int, error)
		CountByStatus(ctx context.Context) (map[Status]int, error)
	}

	service struct {
		repo     Repository
		stdSvc   student.Service
		orgSvc   organization.Service
		deptSvc  department.Service
		usrSvc   user.Service
		notifier notification.Notifier
		auditRec audit.Recorder
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	stdSvc student.Service,
	orgSvc organization.Service,
	deptSvc department.Service,
	usrSvc user.Service,
	notifier notification.Notifier,
	auditRec audit.Recorder,
	logger core.Logger,
) Service {
	return &service{
		repo:     repo,
		stdSvc:   stdSvc,
		orgSvc:   orgSvc,
		deptSvc:  deptSvc,
		usrSvc:   usrSvc,
		notifier: notifier,
		auditRec: auditRec,
		logger:   logger,
	}
}

// ------------------------------------------------------------------------------------------------
// Periods

func (svc *service) CreatePeriod(ctx context.Context, np NewPeriod) (Period, error) {
	if np.IsActive {
		if err := svc.repo.DeactivatePeriods(ctx); err != nil {
			return Period{}, err
		}
	}
	return svc.repo.CreatePeriod(ctx, np.Period())
}

func (svc *service) QueryPeriods(ctx context.Context) ([]Period, error) {
	return svc.repo.QueryPeriods(ctx)
}

func (svc *service) GetPeriod(ctx context.Context, id string) (Period, error) {
	return svc.repo.GetPeriod(ctx, id)
}

func (svc *service) ActivePeriod(ctx context.Context) (Period, error) {
	return svc.repo.GetActivePeriod(ctx)
}

// ------------------------------------------------------------------------------------------------
// Applications

func (svc *service) Apply(ctx context.Context, na NewApplication, std student.Student) (Application, error) {
	if na.PeriodID == "" {
		period, err := svc.repo.GetActivePeriod(ctx)
		if err != nil {
			return Application{}, core.NewValidationError(ErrNoActivePeriod)
		}
		na.PeriodID = period.ID
	}
	period, err := svc.repo.GetPeriod(ctx, na.PeriodID)
	if err != nil {
		return Application{}, err
	}
	if time.Now().UTC().After(period.ApplicationDeadline) {
		return Application{}, core.NewValidationError(ErrDeadlinePassed)
	}

	org, err := svc.orgSvc.GetByID(ctx, na.OrganizationID)
	if err != nil {
		return Application{}, err
	}
	if org.VerificationStatus != organization.VerificationVerified {
		return Application{}, core.NewValidationError(ErrOrganizationNotVerified)
	}

	if open, err := svc.repo.HasOpenApplication(ctx, std.ID, na.PeriodID); err != nil {
		return Application{}, err
	} else if open {
		return Application{}, core.NewValidationError(ErrOpenApplicationExists)
	}

	return svc.repo.CreateApplication(ctx, na.Application(std.ID))
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Application, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryApplications(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplication(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateApplication) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Status != StatusDraft {
		return Application{}, core.NewValidationError(ErrNotDraft)
	}
	if ua.Position != nil {
		app.Position = *ua.Position
	}
	if ua.CoverNote != nil {
		app.CoverNote = *ua.CoverNote
	}
	if ua.StartDate != nil {
		app.StartDate = *ua.StartDate
	}
	if ua.EndDate != nil {
		app.EndDate = *ua.EndDate
	}
	app.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateApplication(ctx, app)
}

// Transition moves an application along the workflow. It enforces the
// permitted jumps, the acting role, and the mandatory reason on rejections
// and terminations, then fans out notifications and an audit record.
func (svc *service) Transition(ctx context.Context, id string, tr TransitionRequest, actor user.User) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}

	from, to := app.Status, tr.Status
	if !CanTransition(from, to) {
		return Application{}, core.NewValidationError(errors.Wrapf(ErrInvalidTransition, "%s to %s", from, to))
	}
	if !actorAllowed(actor, AllowedActors(from, to)) {
		return Application{}, core.NewPermissionError("you are not allowed to perform this transition")
	}
	if to == StatusPlaced && app.SupervisorID == "" {
		return Application{}, core.NewValidationError(ErrSupervisorRequired)
	}

	now := time.Now().UTC()
	app.Status = to
	app.StatusReason = tr.Reason
	app.UpdatedAt = now
	switch {
	case to == StatusSubmitted:
		app.SubmittedAt = now
	case to.IsTerminal() || to == StatusApproved:
		app.DecidedAt = now
	}

	app, err = svc.repo.UpdateApplication(ctx, app)
	if err != nil {
		return Application{}, err
	}

	svc.syncStudentStatus(ctx, app, to)
	svc.notifyTransition(ctx, app, from, to, tr.Reason, actor)
	if err = svc.auditRec.Record(ctx, actor.ID, "application."+string(to), "application", app.ID, map[string]interface{}{
		"from":   string(from),
		"to":     string(to),
		"reason": tr.Reason,
	}); err != nil {
		svc.logger.Warn("recording application transition", err)
	}

	return app, nil
}

// Place assigns a department supervisor and moves an approved application to
// placed, enforcing both the supervisor's and the organization's capacity.
func (svc *service) Place(ctx context.Context, id string, p Placement, actor user.User) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !CanTransition(app.Status, StatusPlaced) {
		return Application{}, core.NewValidationError(errors.Wrapf(ErrInvalidTransition, "%s to %s", app.Status, StatusPlaced))
	}

	sup, err := svc.deptSvc.GetSupervisor(ctx, p.SupervisorID)
	if err != nil {
		return Application{}, err
	}
	if count, err := svc.repo.CountActiveBySupervisor(ctx, sup.ID); err != nil {
		return Application{}, err
	} else if count >= sup.MaxStudents {
		return Application{}, core.NewValidationError(ErrSupervisorFull)
	}

	org, err := svc.orgSvc.GetByID(ctx, app.OrganizationID)
	if err != nil {
		return Application{}, err
	}
	if count, err := svc.repo.CountActiveByOrganization(ctx, org.ID); err != nil {
		return Application{}, err
	} else if count >= org.MaxStudents {
		return Application{}, core.NewValidationError(organization.ErrCapacityFull)
	}

	app.SupervisorID = sup.ID
	app.UpdatedAt = time.Now().UTC()
	if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
		return Application{}, err
	}
	return svc.Transition(ctx, app.ID, TransitionRequest{Status: StatusPlaced}, actor)
}

func (svc *service) Progress(ctx context.Context, id string) (int, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return 0, err
	}
	return app.Progress(time.Now().UTC()), nil
}

func (svc *service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return svc.repo.CountApplicationsByStatus(ctx)
}

// ------------------------------------------------------------------------------------------------
// Transition side effects

func actorAllowed(actor user.User, allowed []string) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, a := range allowed {
		switch a {
		case ActorStudent:
			if actor.IsStudent() {
				return true
			}
		case ActorSupervisor:
			if actor.IsSupervisor() {
				return true
			}
		case ActorCoordinator:
			if actor.IsCoordinator() {
				return true
			}
		}
	}
	return false
}

func (svc *service) syncStudentStatus(ctx context.Context, app Application, to Status) {
	var status string
	switch to {
	case StatusOngoing:
		status = student.StatusOnAttachment
	case StatusCompleted:
		status = student.StatusCompleted
	case StatusTerminated:
		status = student.StatusAvailable
	default:
		return
	}
	if _, err := svc.stdSvc.SetStatus(ctx, app.StudentID, status); err != nil {
		svc.logger.Warn("updating student status", err)
	}
}

func (svc *service) notifyTransition(ctx context.Context, app Application, from, to Status, reason string, actor user.User) {
	link := "/applications/" + app.ID
	title := "Application " + to.Label()

	// the student hears about every move they did not make themselves
	if std, err := svc.stdSvc.GetByID(ctx, app.StudentID); err != nil {
		svc.logger.Warn("looking up applicant", err)
	} else if std.UserID != actor.ID {
		msg := fmt.Sprintf("Your attachment application is now %s.", to.Label())
		if reason != "" {
			msg = fmt.Sprintf("Your attachment application is now %s: %s", to.Label(), reason)
		}
		if err = svc.notifier.Notify(ctx, std.UserID, title, msg, link); err != nil {
			svc.logger.Warn("notifying applicant", err)
		}
	}

	switch to {
	case StatusSubmitted:
		// coordinators pick up new submissions
		coords, err := svc.usrSvc.Query(ctx, &user.QueryFilter{Roles: user.CoordinatorRoles}, nil)
		if err != nil {
			svc.logger.Warn("looking up coordinators", err)
			return
		}
		for _, coord := range coords {
			if err = svc.notifier.Notify(ctx, coord.ID, title,
				fmt.Sprintf("A new attachment application (%s) awaits review.", app.Position), link); err != nil {
				svc.logger.Warn("notifying coordinator", err)
			}
		}
	case StatusPlaced, StatusOngoing, StatusCompleted, StatusTerminated:
		if app.SupervisorID == "" {
			return
		}
		sup, err := svc.deptSvc.GetSupervisor(ctx, app.SupervisorID)
		if err != nil {
			svc.logger.Warn("looking up supervisor", err)
			return
		}
		if sup.UserID == actor.ID {
			return
		}
		if err = svc.notifier.Notify(ctx, sup.UserID, title,
			fmt.Sprintf("Attachment application %s is now %s.", app.ID, to.Label()), link); err != nil {
			svc.logger.Warn("notifying supervisor", err)
		}
	}
}
