package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

type applicationApi struct {
	svc      attachment.Service
	stdSvc   student.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerApplicationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attachment.Service,
	stdSvc student.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := applicationApi{
		svc:      svc,
		stdSvc:   stdSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	pg := g.Group("/periods", jwt)
	pg.POST("", api.createPeriod, coordinatorMiddleware())
	pg.GET("", api.queryPeriods)
	pg.GET("/active", api.activePeriod)
	pg.GET("/:id", api.retrievePeriod)

	ag := g.Group("/applications", jwt)
	ag.POST("", api.apply)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.POST("/:id/transition", api.transition)
	ag.POST("/:id/place", api.place, coordinatorMiddleware())
	ag.GET("/:id/progress", api.progress)
}

// Periods

func (api *applicationApi) createPeriod(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data attachment.NewPeriod
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPeriod")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	period, err := api.svc.CreatePeriod(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating period")
	}
	return ctx.JSON(http.StatusCreated, period)
}

func (api *applicationApi) queryPeriods(ctx echo.Context) error {
	periods, err := api.svc.QueryPeriods(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying periods")
	}
	if periods == nil {
		periods = []attachment.Period{}
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *applicationApi) activePeriod(ctx echo.Context) error {
	period, err := api.svc.ActivePeriod(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == attachment.ErrNoActivePeriod {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, period)
}

func (api *applicationApi) retrievePeriod(ctx echo.Context) error {
	period, err := api.svc.GetPeriod(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, period)
}

// Applications

func (api *applicationApi) apply(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStudent {
		return errHttpForbidden
	}

	var data attachment.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
	if err != nil {
		return err
	}

	app, err := api.svc.Apply(reqCtx, data, std)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

// query lists applications. Students only ever see their own; supervisors and
// coordinators can filter freely.
func (api *applicationApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(attachment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attachment.Application{})
	}
	if !claims.IsStaff() {
		std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
		if err != nil {
			return err
		}
		filter.StudentID = std.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	apps, err := api.svc.Query(reqCtx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []attachment.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	app, err := api.getOwnedApplication(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) update(ctx echo.Context) error {
	app, err := api.getOwnedApplication(ctx)
	if err != nil {
		return err
	}

	var data attachment.UpdateApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplication")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, app); err != nil {
		return err
	}

	app, err = api.svc.Update(ctx.Request().Context(), app.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) transition(ctx echo.Context) error {
	app, err := api.getOwnedApplication(ctx)
	if err != nil {
		return err
	}

	var data attachment.TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err = api.svc.Transition(ctx.Request().Context(), app.ID, data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) place(ctx echo.Context) error {
	var data attachment.Placement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Placement")
	}
	if err := api.validate.StructCtx(ctx.Request().Context(), data); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Place(ctx.Request().Context(), ctx.Param("id"), data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) progress(ctx echo.Context) error {
	app, err := api.getOwnedApplication(ctx)
	if err != nil {
		return err
	}

	percent, err := api.svc.Progress(ctx.Request().Context(), app.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"application_id": app.ID, "progress": percent})
}

// getOwnedApplication loads the application in :id; students may only access their own.
func (api *applicationApi) getOwnedApplication(ctx echo.Context) (attachment.Application, error) {
	reqCtx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return attachment.Application{}, errors.Wrap(err, "getting context claims")
	}

	app, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return attachment.Application{}, err
	}
	if !claims.IsStaff() {
		std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
		if err != nil || std.ID != app.StudentID {
			return attachment.Application{}, errHttpNotFound
		}
	}
	return app, nil
}
