package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/document"
	"github.com/trezcool/tarajali/core/user"
)

type documentApi struct {
	svc      document.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerDocumentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc document.Service, usrSvc user.Service, validate *validator.Validate) {
	api := documentApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	dg := g.Group("/documents", jwt)
	dg.POST("", api.add)
	dg.GET("", api.queryMine)
	dg.GET("/:id", api.retrieve)
	dg.DELETE("/:id", api.destroy)

	g.GET("/applications/:id/documents", api.queryForApplication, jwt, staffMiddleware())
}

func (api *documentApi) add(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data document.NewDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	doc, err := api.svc.Add(reqCtx, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "adding document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *documentApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	docs, err := api.svc.QueryForOwner(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *documentApi) queryForApplication(ctx echo.Context) error {
	docs, err := api.svc.QueryForApplication(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	doc, err := api.getOwnedDocument(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	doc, err := api.getOwnedDocument(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), doc.ID); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getOwnedDocument loads the document in :id; only its owner and staff may touch it.
func (api *documentApi) getOwnedDocument(ctx echo.Context) (document.Document, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "getting context claims")
	}

	doc, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return document.Document{}, err
	}
	if !claims.IsStaff() && doc.OwnerID != claims.Subject {
		return document.Document{}, errHttpNotFound
	}
	return doc, nil
}
