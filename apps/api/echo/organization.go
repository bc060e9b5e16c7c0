package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/user"
)

type organizationApi struct {
	svc      organization.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerOrganizationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc organization.Service, usrSvc user.Service, validate *validator.Validate) {
	api := organizationApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	og := g.Group("/organizations", jwt)
	og.POST("", api.register)
	og.GET("", api.query, staffMiddleware())
	og.GET("/verified", api.queryVerified)
	og.GET("/:id", api.retrieve)
	og.PUT("/:id", api.update, coordinatorMiddleware())
	og.PUT("/:id/verify", api.verify, coordinatorMiddleware())
}

// register records a new host organization. Any logged-in user may suggest
// one; it stays pending until a coordinator verifies it.
func (api *organizationApi) register(ctx echo.Context) error {
	var data organization.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	org, err := api.svc.Register(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "registering organization")
	}
	return ctx.JSON(http.StatusCreated, org)
}

func (api *organizationApi) query(ctx echo.Context) error {
	filter := new(organization.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []organization.Organization{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	orgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	if orgs == nil {
		orgs = []organization.Organization{}
	}
	return ctx.JSON(http.StatusOK, orgs)
}

func (api *organizationApi) queryVerified(ctx echo.Context) error {
	orgs, err := api.svc.QueryVerified(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying verified organizations")
	}
	if orgs == nil {
		orgs = []organization.Organization{}
	}
	return ctx.JSON(http.StatusOK, orgs)
}

func (api *organizationApi) retrieve(ctx echo.Context) error {
	org, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, org)
}

func (api *organizationApi) update(ctx echo.Context) error {
	var data organization.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	org, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, org)
}

func (api *organizationApi) verify(ctx echo.Context) error {
	var data organization.Verification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Verification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	org, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, org)
}
