package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/user"
)

type departmentApi struct {
	svc      department.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerDepartmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc department.Service, usrSvc user.Service, validate *validator.Validate) {
	api := departmentApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	dg := g.Group("/departments", jwt)
	dg.POST("", api.create, adminMiddleware())
	dg.GET("", api.query)
	dg.GET("/:id", api.retrieve)
	dg.GET("/:id/supervisors", api.querySupervisors)

	sg := g.Group("/supervisors", jwt)
	sg.POST("", api.addSupervisor, coordinatorMiddleware())
	sg.GET("/me", api.retrieveSupervisorMe)
	sg.GET("/:id", api.retrieveSupervisor)
}

func (api *departmentApi) create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data department.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	dept, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *departmentApi) query(ctx echo.Context) error {
	depts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if depts == nil {
		depts = []department.Department{}
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *departmentApi) retrieve(ctx echo.Context) error {
	dept, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *departmentApi) querySupervisors(ctx echo.Context) error {
	sups, err := api.svc.QuerySupervisors(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying supervisors")
	}
	if sups == nil {
		sups = []department.Supervisor{}
	}
	return ctx.JSON(http.StatusOK, sups)
}

func (api *departmentApi) addSupervisor(ctx echo.Context) error {
	var data department.NewSupervisor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSupervisor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sup, err := api.svc.AddSupervisor(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding supervisor")
	}
	return ctx.JSON(http.StatusCreated, sup)
}

// retrieveSupervisorMe returns the supervisor profile of the logged-in user.
func (api *departmentApi) retrieveSupervisorMe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sup, err := api.svc.GetSupervisorByUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sup)
}

func (api *departmentApi) retrieveSupervisor(ctx echo.Context) error {
	sup, err := api.svc.GetSupervisor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sup)
}
