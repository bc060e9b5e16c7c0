package messaging

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/user"
)

type (
	// Message is a direct message between two platform users. ParentID
	// threads replies under the original message.
	Message struct {
		ID          string    `json:"id"`
		SenderID    string    `json:"sender_id"`
		RecipientID string    `json:"recipient_id"`
		ParentID    string    `json:"parent_id,omitempty"`
		Subject     string    `json:"subject"`
		Body        string    `json:"body"`
		IsRead      bool      `json:"is_read"`
		ReadAt      time.Time `json:"read_at,omitempty"`
		CreatedAt   time.Time `json:"created_at"`

		// read-only joins
		SenderName    string `json:"sender_name,omitempty"`
		RecipientName string `json:"recipient_name,omitempty"`
	}

	NewMessage struct {
		RecipientID string `json:"recipient_id" validate:"required"`
		ParentID    string `json:"parent_id"`
		Subject     string `json:"subject" validate:"required"`
		Body        string `json:"body" validate:"required"`
	}
)

func (nm *NewMessage) Validate(ctx context.Context, validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	nm.Body = core.CleanString(nm.Body)
	return validate.StructCtx(ctx, nm)
}

func (nm NewMessage) Message(senderID string) Message {
	return Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: nm.RecipientID,
		ParentID:    nm.ParentID,
		Subject:     nm.Subject,
		Body:        nm.Body,
		CreatedAt:   time.Now().UTC(),
	}
}

// CanMessage enforces who may write to whom. Students reach their
// supervisors and coordinators, supervisors reach students, and
// coordinators and admins reach anyone.
func CanMessage(sender, recipient user.User) bool {
	switch {
	case sender.IsAdmin(), sender.IsCoordinator():
		return true
	case sender.IsSupervisor():
		return recipient.IsStudent() || recipient.IsCoordinator()
	case sender.IsStudent():
		return recipient.IsSupervisor() || recipient.IsCoordinator()
	}
	return false
}
