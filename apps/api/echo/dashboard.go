package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/logbook"
	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

type dashboardApi struct {
	attSvc   attachment.Service
	stdSvc   student.Service
	deptSvc  department.Service
	logSvc   logbook.Service
	orgSvc   organization.Service
	auditSvc audit.Service
	usrSvc   user.Service
}

func registerDashboardAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	attSvc attachment.Service,
	stdSvc student.Service,
	deptSvc department.Service,
	logSvc logbook.Service,
	orgSvc organization.Service,
	auditSvc audit.Service,
	usrSvc user.Service,
) {
	api := dashboardApi{
		attSvc:   attSvc,
		stdSvc:   stdSvc,
		deptSvc:  deptSvc,
		logSvc:   logSvc,
		orgSvc:   orgSvc,
		auditSvc: auditSvc,
		usrSvc:   usrSvc,
	}

	g.GET("/dashboard", api.stats, jwt)
	g.GET("/audit", api.queryAudit, jwt, adminMiddleware())
}

type dashboardStats struct {
	Applications  map[attachment.Status]int `json:"applications"`
	Students      int                       `json:"students"`
	OnAttachment  int                       `json:"students_on_attachment"`
	Organizations int                       `json:"organizations_verified"`
	PendingOrgs   int                       `json:"organizations_pending"`
}

type supervisorStats struct {
	Assigned       map[attachment.Status]int `json:"assigned_applications"`
	PendingReviews int                       `json:"pending_logbook_reviews"`
}

type studentStats struct {
	Applications    map[attachment.Status]int `json:"applications"`
	Progress        int                       `json:"attachment_progress"`
	LogbookEntries  int                       `json:"logbook_entries"`
	LogbookApproved int                       `json:"logbook_approved"`
}

// stats serves the dashboard numbers shaped for the caller's role:
// coordinators and admins get the institution-wide view, supervisors their
// assigned caseload, students their own attachment.
func (api *dashboardApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	switch {
	case claims.IsCoordinator || claims.IsAdmin:
		return api.coordinatorStats(ctx)
	case claims.IsSupervisor:
		return api.supervisorStats(ctx, claims)
	default:
		return api.studentStats(ctx, claims)
	}
}

func (api *dashboardApi) coordinatorStats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	byStatus, err := api.attSvc.CountByStatus(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting applications by status")
	}
	students, err := api.stdSvc.Count(reqCtx, "")
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	onAttachment, err := api.stdSvc.Count(reqCtx, student.StatusOnAttachment)
	if err != nil {
		return errors.Wrap(err, "counting students on attachment")
	}
	verified, err := api.orgSvc.Count(reqCtx, organization.VerificationVerified)
	if err != nil {
		return errors.Wrap(err, "counting verified organizations")
	}
	pending, err := api.orgSvc.Count(reqCtx, organization.VerificationPending)
	if err != nil {
		return errors.Wrap(err, "counting pending organizations")
	}

	return ctx.JSON(http.StatusOK, dashboardStats{
		Applications:  byStatus,
		Students:      students,
		OnAttachment:  onAttachment,
		Organizations: verified,
		PendingOrgs:   pending,
	})
}

func (api *dashboardApi) supervisorStats(ctx echo.Context, claims Claims) error {
	reqCtx := ctx.Request().Context()

	stats := supervisorStats{Assigned: make(map[attachment.Status]int)}
	sup, err := api.deptSvc.GetSupervisorByUser(reqCtx, claims.Subject)
	if err != nil {
		return ctx.JSON(http.StatusOK, stats)
	}

	apps, err := api.attSvc.Query(reqCtx, &attachment.QueryFilter{SupervisorID: sup.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying assigned applications")
	}
	for _, app := range apps {
		stats.Assigned[app.Status]++
		if app.Status != attachment.StatusOngoing {
			continue
		}
		entries, err := api.logSvc.QueryForApplication(reqCtx, app.ID)
		if err != nil {
			return errors.Wrap(err, "querying logbook entries")
		}
		for _, entry := range entries {
			if entry.Status == logbook.StatusSubmitted {
				stats.PendingReviews++
			}
		}
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) studentStats(ctx echo.Context, claims Claims) error {
	reqCtx := ctx.Request().Context()

	stats := studentStats{Applications: make(map[attachment.Status]int)}
	std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
	if err != nil {
		return ctx.JSON(http.StatusOK, stats)
	}

	apps, err := api.attSvc.Query(reqCtx, &attachment.QueryFilter{StudentID: std.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	for _, app := range apps {
		stats.Applications[app.Status]++
		if app.Status != attachment.StatusOngoing && app.Status != attachment.StatusCompleted {
			continue
		}
		if progress, err := api.attSvc.Progress(reqCtx, app.ID); err == nil {
			stats.Progress = progress
		}
		entries, err := api.logSvc.QueryForApplication(reqCtx, app.ID)
		if err != nil {
			return errors.Wrap(err, "querying logbook entries")
		}
		stats.LogbookEntries += len(entries)
		for _, entry := range entries {
			if entry.Status == logbook.StatusApproved {
				stats.LogbookApproved++
			}
		}
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) queryAudit(ctx echo.Context) error {
	objectType := ctx.QueryParam("object_type")
	objectID := ctx.QueryParam("object_id")

	logs, err := api.auditSvc.QueryForObject(ctx.Request().Context(), objectType, objectID)
	if err != nil {
		return errors.Wrap(err, "querying audit logs")
	}
	if logs == nil {
		logs = []audit.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}
