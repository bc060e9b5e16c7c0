package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/logbook"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

type logbookApi struct {
	svc      logbook.Service
	attSvc   attachment.Service
	stdSvc   student.Service
	deptSvc  department.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerLogbookAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc logbook.Service,
	attSvc attachment.Service,
	stdSvc student.Service,
	deptSvc department.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := logbookApi{
		svc:      svc,
		attSvc:   attSvc,
		stdSvc:   stdSvc,
		deptSvc:  deptSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	lg := g.Group("/logbook", jwt)
	lg.POST("", api.create)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update)
	lg.POST("/:id/submit", api.submit)
	lg.POST("/:id/review", api.review, staffMiddleware())

	g.GET("/applications/:id/logbook", api.queryForApplication, jwt)
}

func (api *logbookApi) create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data logbook.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	if err := api.checkApplicationAccess(ctx, data.ApplicationID); err != nil {
		return err
	}

	entry, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *logbookApi) queryForApplication(ctx echo.Context) error {
	if err := api.checkApplicationAccess(ctx, ctx.Param("id")); err != nil {
		return err
	}

	entries, err := api.svc.QueryForApplication(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying logbook entries")
	}
	if entries == nil {
		entries = []logbook.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *logbookApi) retrieve(ctx echo.Context) error {
	entry, err := api.getOwnedEntry(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *logbookApi) update(ctx echo.Context) error {
	entry, err := api.getOwnedEntry(ctx)
	if err != nil {
		return err
	}

	var data logbook.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	entry, err = api.svc.Update(ctx.Request().Context(), entry.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *logbookApi) submit(ctx echo.Context) error {
	entry, err := api.getOwnedEntry(ctx)
	if err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	entry, err = api.svc.Submit(ctx.Request().Context(), entry.ID, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *logbookApi) review(ctx echo.Context) error {
	var data logbook.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	entry, err := api.svc.Review(ctx.Request().Context(), ctx.Param("id"), data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

// getOwnedEntry loads the entry in :id; students may only access entries of
// their own applications.
func (api *logbookApi) getOwnedEntry(ctx echo.Context) (logbook.Entry, error) {
	entry, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return logbook.Entry{}, err
	}
	if err := api.checkApplicationAccess(ctx, entry.ApplicationID); err != nil {
		return logbook.Entry{}, err
	}
	return entry, nil
}

func (api *logbookApi) checkApplicationAccess(ctx echo.Context, applicationID string) error {
	reqCtx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsCoordinator || claims.IsAdmin {
		return nil
	}

	app, err := api.attSvc.GetByID(reqCtx, applicationID)
	if err != nil {
		return err
	}
	if claims.IsSupervisor {
		sup, err := api.deptSvc.GetSupervisorByUser(reqCtx, claims.Subject)
		if err != nil || app.SupervisorID == "" || sup.ID != app.SupervisorID {
			return errHttpNotFound
		}
		return nil
	}
	std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
	if err != nil || std.ID != app.StudentID {
		return errHttpNotFound
	}
	return nil
}
