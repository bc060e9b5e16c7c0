package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/announcement"
)

type announcementRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Body        string         `db:"body"`
	Priority    string         `db:"priority"`
	TargetRoles pq.StringArray `db:"target_roles"`
	PublishAt   null.Time      `db:"publish_at"`
	ExpiresAt   null.Time      `db:"expires_at"`
	CreatedBy   null.String    `db:"created_by"`
	CreatedAt   null.Time      `db:"created_at"`
}

func (r announcementRow) announcement() announcement.Announcement {
	return announcement.Announcement{
		ID:          r.ID,
		Title:       r.Title,
		Body:        r.Body,
		Priority:    r.Priority,
		TargetRoles: r.TargetRoles,
		PublishAt:   r.PublishAt.Time,
		ExpiresAt:   r.ExpiresAt.Time,
		CreatedBy:   r.CreatedBy.String,
		CreatedAt:   r.CreatedAt.Time,
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	query := `
		INSERT INTO announcement (id, title, body, priority, target_roles, publish_at, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		ann.ID, ann.Title, ann.Body, ann.Priority, pq.Array(ann.TargetRoles),
		null.NewTime(ann.PublishAt.UTC(), !ann.PublishAt.IsZero()),
		null.NewTime(ann.ExpiresAt.UTC(), !ann.ExpiresAt.IsZero()),
		null.NewString(ann.CreatedBy, ann.CreatedBy != ""), ann.CreatedAt.UTC()); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	var rows []announcementRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, `SELECT * FROM announcement ORDER BY publish_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.announcement())
	}
	return anns, nil
}

func (repo announcementRepository) GetAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) (announcement.Announcement, error) {
	var row announcementRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM announcement WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return announcement.Announcement{}, announcement.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return row.announcement(), nil
}

func (repo announcementRepository) UpdateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	query := `
		UPDATE announcement
		SET title = $2, body = $3, priority = $4, target_roles = $5, publish_at = $6, expires_at = $7
		WHERE id = $1`
	res, err := ext(repo.db, exec).ExecContext(ctx, query,
		ann.ID, ann.Title, ann.Body, ann.Priority, pq.Array(ann.TargetRoles),
		null.NewTime(ann.PublishAt.UTC(), !ann.PublishAt.IsZero()),
		null.NewTime(ann.ExpiresAt.UTC(), !ann.ExpiresAt.IsZero()))
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return ann, nil
}

func (repo announcementRepository) DeleteAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := ext(repo.db, exec).ExecContext(ctx, `DELETE FROM announcement WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.ErrNotFound
	}
	return nil
}
