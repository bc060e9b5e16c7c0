package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/evaluation"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
)

type evaluationApi struct {
	svc      evaluation.Service
	attSvc   attachment.Service
	stdSvc   student.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerEvaluationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc evaluation.Service,
	attSvc attachment.Service,
	stdSvc student.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := evaluationApi{
		svc:      svc,
		attSvc:   attSvc,
		stdSvc:   stdSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	eg := g.Group("/evaluations", jwt)
	eg.POST("", api.create, staffMiddleware())
	eg.GET("/:id", api.retrieve)

	g.GET("/applications/:id/evaluations", api.queryForApplication, jwt)
	g.GET("/applications/:id/result", api.result, jwt)
}

func (api *evaluationApi) create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	evaluator, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	eval, err := api.svc.Create(reqCtx, data, evaluator)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, eval)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	eval, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.checkApplicationAccess(ctx, eval.ApplicationID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) queryForApplication(ctx echo.Context) error {
	if err := api.checkApplicationAccess(ctx, ctx.Param("id")); err != nil {
		return err
	}

	evals, err := api.svc.QueryForApplication(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) result(ctx echo.Context) error {
	if err := api.checkApplicationAccess(ctx, ctx.Param("id")); err != nil {
		return err
	}

	result, err := api.svc.ResultFor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *evaluationApi) checkApplicationAccess(ctx echo.Context, applicationID string) error {
	reqCtx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStaff() {
		return nil
	}

	app, err := api.attSvc.GetByID(reqCtx, applicationID)
	if err != nil {
		return err
	}
	std, err := api.stdSvc.GetByUser(reqCtx, claims.Subject)
	if err != nil || std.ID != app.StudentID {
		return errHttpNotFound
	}
	return nil
}
