package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core/messaging"
	"github.com/trezcool/tarajali/core/user"
)

type messageApi struct {
	svc      messaging.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc messaging.Service, usrSvc user.Service, validate *validator.Validate) {
	api := messageApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	mg := g.Group("/messages", jwt)
	mg.POST("", api.send)
	mg.GET("/inbox", api.inbox)
	mg.GET("/sent", api.sent)
	mg.GET("/unread-count", api.unreadCount)
	mg.GET("/:id/thread", api.thread)
	mg.POST("/:id/read", api.markRead)
}

func (api *messageApi) send(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data messaging.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	sender, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Send(reqCtx, data, sender)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messageApi) inbox(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msgs, err := api.svc.Inbox(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying inbox")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) sent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msgs, err := api.svc.Sent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying sent messages")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	count, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"unread": count})
}

func (api *messageApi) thread(ctx echo.Context) error {
	msg, err := api.getOwnedMessage(ctx)
	if err != nil {
		return err
	}

	msgs, err := api.svc.Thread(ctx.Request().Context(), msg.ID)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	// only the recipient can mark a message read
	if msg.RecipientID != claims.Subject {
		return errHttpNotFound
	}

	msg, err = api.svc.MarkRead(ctx.Request().Context(), msg.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msg)
}

// getOwnedMessage loads the message in :id; only a participant may see it.
func (api *messageApi) getOwnedMessage(ctx echo.Context) (messaging.Message, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "getting context claims")
	}

	msg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return messaging.Message{}, err
	}
	if msg.SenderID != claims.Subject && msg.RecipientID != claims.Subject && !claims.IsAdmin {
		return messaging.Message{}, errHttpNotFound
	}
	return msg, nil
}
