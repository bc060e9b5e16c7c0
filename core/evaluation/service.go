package evaluation

import (
	"context"
	"fmt"

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
	ErrNotFound      = errors.New("evaluation not found")
	ErrAlreadyExists = errors.New("an evaluation of this type already exists for this application")
	ErrNotEvaluable  = errors.New("the attachment is not ongoing or completed")
	ErrNotAssigned   = errors.New("you are not the assigned supervisor for this attachment")
)

type (
	Repository interface {
		CreateEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
		QueryEvaluations(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]Evaluation, error)
		GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (Evaluation, error)
		GetEvaluationByType(ctx context.Context, applicationID, evalType string, exec ...core.DBExecutor) (Evaluation, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewEvaluation, evaluator user.User) (Evaluation, error)
		QueryForApplication(ctx context.Context, applicationID string) ([]Evaluation, error)
		GetByID(ctx context.Context, id string) (Evaluation, error)
		ResultFor(ctx context.Context, applicationID string) (Result, error)
	}

	service struct {
		repo     Repository
		attSvc   attachment.Service
		stdSvc   student.Service
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
	attSvc attachment.Service,
	stdSvc student.Service,
	deptSvc department.Service,
	usrSvc user.Service,
	notifier notification.Notifier,
	auditRec audit.Recorder,
	logger core.Logger,
) Service {
	return &service{
		repo:     repo,
		attSvc:   attSvc,
		stdSvc:   stdSvc,
		deptSvc:  deptSvc,
		usrSvc:   usrSvc,
		notifier: notifier,
		auditRec: auditRec,
		logger:   logger,
	}
}

func (svc *service) Create(ctx context.Context, ne NewEvaluation, evaluator user.User) (Evaluation, error) {
	app, err := svc.attSvc.GetByID(ctx, ne.ApplicationID)
	if err != nil {
		return Evaluation{}, err
	}
	if app.Status != attachment.StatusOngoing && app.Status != attachment.StatusCompleted {
		return Evaluation{}, core.NewValidationError(ErrNotEvaluable)
	}
	// only the assigned supervisor evaluates; coordinators and admins may step in
	if !evaluator.IsCoordinator() && !evaluator.IsAdmin() {
		sup, err := svc.deptSvc.GetSupervisorByUser(ctx, evaluator.ID)
		if err != nil || app.SupervisorID == "" || sup.ID != app.SupervisorID {
			return Evaluation{}, core.NewPermissionError(ErrNotAssigned.Error())
		}
	}
	if _, err = svc.repo.GetEvaluationByType(ctx, ne.ApplicationID, ne.Type); err == nil {
		return Evaluation{}, core.NewValidationError(ErrAlreadyExists, core.FieldError{
			Field: "type", Error: ErrAlreadyExists.Error(),
		})
	} else if !errors.Is(err, ErrNotFound) {
		return Evaluation{}, err
	}

	ev, err := svc.repo.CreateEvaluation(ctx, ne.Evaluation(evaluator.ID))
	if err != nil {
		return Evaluation{}, err
	}

	if std, err := svc.stdSvc.GetByID(ctx, app.StudentID); err != nil {
		svc.logger.Warn("looking up evaluated student", err)
	} else if err = svc.notifier.Notify(ctx, std.UserID, "Evaluation Recorded",
		fmt.Sprintf("Your %s evaluation has been recorded: %d/%d (%s).", ev.Type, ev.TotalMarks, MaxMarks, ev.Grade),
		"/applications/"+app.ID); err != nil {
		svc.logger.Warn("notifying evaluated student", err)
	}
	if coords, err := svc.usrSvc.Query(ctx, &user.QueryFilter{Roles: user.CoordinatorRoles}, nil); err != nil {
		svc.logger.Warn("looking up coordinators", err)
	} else {
		for _, coord := range coords {
			if coord.ID == evaluator.ID {
				continue
			}
			if err = svc.notifier.Notify(ctx, coord.ID, "Evaluation Recorded",
				fmt.Sprintf("A %s evaluation was recorded for application %s: %d/%d (%s).",
					ev.Type, app.ID, ev.TotalMarks, MaxMarks, ev.Grade),
				"/applications/"+app.ID); err != nil {
				svc.logger.Warn("notifying coordinator", err)
			}
		}
	}
	if err = svc.auditRec.Record(ctx, evaluator.ID, "evaluation.created", "evaluation", ev.ID, map[string]interface{}{
		"application_id": ev.ApplicationID,
		"type":           ev.Type,
		"total_marks":    ev.TotalMarks,
		"grade":          ev.Grade,
	}); err != nil {
		svc.logger.Warn("recording evaluation", err)
	}
	return ev, nil
}

func (svc *service) QueryForApplication(ctx context.Context, applicationID string) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, applicationID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Evaluation, error) {
	return svc.repo.GetEvaluation(ctx, id)
}

func (svc *service) ResultFor(ctx context.Context, applicationID string) (Result, error) {
	if _, err := svc.attSvc.GetByID(ctx, applicationID); err != nil {
		return Result{}, err
	}
	var midterm, final *Evaluation
	if ev, err := svc.repo.GetEvaluationByType(ctx, applicationID, TypeMidterm); err == nil {
		midterm = &ev
	} else if !errors.Is(err, ErrNotFound) {
		return Result{}, err
	}
	if ev, err := svc.repo.GetEvaluationByType(ctx, applicationID, TypeFinal); err == nil {
		final = &ev
	} else if !errors.Is(err, ErrNotFound) {
		return Result{}, err
	}
	return NewResult(applicationID, midterm, final), nil
}
