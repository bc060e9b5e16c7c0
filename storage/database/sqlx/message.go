package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/messaging"
)

type messageRow struct {
	ID          string      `db:"id"`
	SenderID    string      `db:"sender_id"`
	RecipientID string      `db:"recipient_id"`
	ParentID    null.String `db:"parent_id"`
	Subject     string      `db:"subject"`
	Body        string      `db:"body"`
	IsRead      bool        `db:"is_read"`
	ReadAt      null.Time   `db:"read_at"`
	CreatedAt   null.Time   `db:"created_at"`

	SenderName    null.String `db:"sender_name"`
	RecipientName null.String `db:"recipient_name"`
}

func (r messageRow) message() messaging.Message {
	return messaging.Message{
		ID:            r.ID,
		SenderID:      r.SenderID,
		RecipientID:   r.RecipientID,
		ParentID:      r.ParentID.String,
		Subject:       r.Subject,
		Body:          r.Body,
		IsRead:        r.IsRead,
		ReadAt:        r.ReadAt.Time,
		CreatedAt:     r.CreatedAt.Time,
		SenderName:    r.SenderName.String,
		RecipientName: r.RecipientName.String,
	}
}

const messageSelect = `
	SELECT m.*, su.name AS sender_name, ru.name AS recipient_name
	FROM message m
	JOIN "user" su ON su.id = m.sender_id
	JOIN "user" ru ON ru.id = m.recipient_id`

type messageRepository struct {
	db *sqlx.DB
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo messageRepository) CreateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	query := `
		INSERT INTO message (id, sender_id, recipient_id, parent_id, subject, body, is_read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.RecipientID, null.NewString(msg.ParentID, msg.ParentID != ""),
		msg.Subject, msg.Body, msg.IsRead,
		null.NewTime(msg.ReadAt.UTC(), !msg.ReadAt.IsZero()), msg.CreatedAt.UTC()); err != nil {
		return messaging.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo messageRepository) queryMessages(ctx context.Context, query string, exec []core.DBExecutor, args ...interface{}) ([]messaging.Message, error) {
	var rows []messageRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	msgs := make([]messaging.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.message())
	}
	return msgs, nil
}

func (repo messageRepository) QueryInbox(ctx context.Context, userID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	return repo.queryMessages(ctx, messageSelect+` WHERE m.recipient_id = $1 ORDER BY m.created_at DESC`, exec, userID)
}

func (repo messageRepository) QuerySent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	return repo.queryMessages(ctx, messageSelect+` WHERE m.sender_id = $1 ORDER BY m.created_at DESC`, exec, userID)
}

func (repo messageRepository) QueryThread(ctx context.Context, rootID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	query := messageSelect + ` WHERE m.id = $1 OR m.parent_id = $1 ORDER BY m.created_at ASC`
	return repo.queryMessages(ctx, query, exec, rootID)
}

func (repo messageRepository) GetMessage(ctx context.Context, id string, exec ...core.DBExecutor) (messaging.Message, error) {
	var row messageRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, messageSelect+` WHERE m.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return messaging.Message{}, messaging.ErrNotFound
		}
		return messaging.Message{}, errors.Wrap(err, "getting message")
	}
	return row.message(), nil
}

func (repo messageRepository) UpdateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	res, err := ext(repo.db, exec).ExecContext(ctx, `UPDATE message SET is_read = $2, read_at = $3 WHERE id = $1`,
		msg.ID, msg.IsRead, null.NewTime(msg.ReadAt.UTC(), !msg.ReadAt.IsZero()))
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "updating message")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return messaging.Message{}, messaging.ErrNotFound
	}
	return msg, nil
}

func (repo messageRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM message WHERE recipient_id = $1 AND NOT is_read`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &count, query, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	return count, nil
}
