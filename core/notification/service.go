package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/user"
)

var ErrNotFound = errors.New("notification not found")

type (
	// Notifier is implemented by Service and consumed by the other domain
	// services as their post-save hook. A notification is a plain row insert;
	// there is no delivery guarantee beyond the insert itself.
	Notifier interface {
		Notify(ctx context.Context, userID, title, message, link string) error
	}

	Repository interface {
		CreateNotification(ctx context.Context, notif Notification, exec ...core.DBExecutor) (Notification, error)
		QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]Notification, error)
		GetNotification(ctx context.Context, id string, exec ...core.DBExecutor) (Notification, error)
		UpdateNotification(ctx context.Context, notif Notification, exec ...core.DBExecutor) (Notification, error)
		MarkAllRead(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Notifier
		QueryForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		GetByID(ctx context.Context, id string) (Notification, error)
		MarkRead(ctx context.Context, id string) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) (int, error)
		UnreadCount(ctx context.Context, userID string) (int, error)
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) Notify(ctx context.Context, userID, title, message, link string) error {
	notif := Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	notif, err := svc.repo.CreateNotification(ctx, notif)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}

	// best effort; the row is the source of truth
	if usr, err := svc.usrSvc.GetByID(ctx, userID); err == nil && usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: notif.Title,
			BodyStr: notif.Message,
		})
	} else if err != nil {
		svc.logger.Warn("looking up notification recipient", err)
	}
	return nil
}

func (svc *service) QueryForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *service) GetByID(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotification(ctx, id)
}

func (svc *service) MarkRead(ctx context.Context, id string) (Notification, error) {
	notif, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.IsRead {
		return notif, nil
	}
	notif.IsRead = true
	return svc.repo.UpdateNotification(ctx, notif)
}

func (svc *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID)
}

func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}
