package messaging

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("message not found")
	ErrRecipientForbidden = errors.New("you cannot message this user")
	ErrSelfMessage        = errors.New("you cannot message yourself")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		QueryInbox(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Message, error)
		QuerySent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Message, error)
		QueryThread(ctx context.Context, rootID string, exec ...core.DBExecutor) ([]Message, error)
		GetMessage(ctx context.Context, id string, exec ...core.DBExecutor) (Message, error)
		UpdateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Send(ctx context.Context, nm NewMessage, sender user.User) (Message, error)
		Inbox(ctx context.Context, userID string) ([]Message, error)
		Sent(ctx context.Context, userID string) ([]Message, error)
		Thread(ctx context.Context, id string) ([]Message, error)
		GetByID(ctx context.Context, id string) (Message, error)
		MarkRead(ctx context.Context, id string) (Message, error)
		UnreadCount(ctx context.Context, userID string) (int, error)
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		notifier notification.Notifier
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, notifier notification.Notifier, logger core.Logger) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		notifier: notifier,
		logger:   logger,
	}
}

func (svc *service) Send(ctx context.Context, nm NewMessage, sender user.User) (Message, error) {
	if nm.RecipientID == sender.ID {
		return Message{}, core.NewValidationError(ErrSelfMessage)
	}
	recipient, err := svc.usrSvc.GetByID(ctx, nm.RecipientID)
	if err != nil {
		return Message{}, err
	}
	if !CanMessage(sender, recipient) {
		return Message{}, core.NewPermissionError(ErrRecipientForbidden.Error())
	}
	if nm.ParentID != "" {
		// replies thread under the root message
		parent, err := svc.repo.GetMessage(ctx, nm.ParentID)
		if err != nil {
			return Message{}, err
		}
		if parent.ParentID != "" {
			nm.ParentID = parent.ParentID
		}
	}

	msg, err := svc.repo.CreateMessage(ctx, nm.Message(sender.ID))
	if err != nil {
		return Message{}, err
	}

	if err = svc.notifier.Notify(ctx, msg.RecipientID, "New Message",
		"You have a new message from "+sender.Name+": "+msg.Subject, "/messages/"+msg.ID); err != nil {
		svc.logger.Warn("notifying message recipient", err)
	}
	return msg, nil
}

func (svc *service) Inbox(ctx context.Context, userID string) ([]Message, error) {
	return svc.repo.QueryInbox(ctx, userID)
}

func (svc *service) Sent(ctx context.Context, userID string) ([]Message, error) {
	return svc.repo.QuerySent(ctx, userID)
}

func (svc *service) Thread(ctx context.Context, id string) ([]Message, error) {
	msg, err := svc.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	rootID := msg.ID
	if msg.ParentID != "" {
		rootID = msg.ParentID
	}
	return svc.repo.QueryThread(ctx, rootID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Message, error) {
	return svc.repo.GetMessage(ctx, id)
}

func (svc *service) MarkRead(ctx context.Context, id string) (Message, error) {
	msg, err := svc.repo.GetMessage(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if msg.IsRead {
		return msg, nil
	}
	msg.IsRead = true
	msg.ReadAt = time.Now().UTC()
	return svc.repo.UpdateMessage(ctx, msg)
}

func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}
