package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/logbook"
)

type logbookRow struct {
	ID                string      `db:"id"`
	ApplicationID     string      `db:"application_id"`
	WeekNumber        int         `db:"week_number"`
	WeekStart         null.Time   `db:"week_start"`
	WeekEnd           null.Time   `db:"week_end"`
	Activities        string      `db:"activities"`
	SkillsLearned     null.String `db:"skills_learned"`
	Challenges        null.String `db:"challenges"`
	LessonsLearned    null.String `db:"lessons_learned"`
	Status            string      `db:"status"`
	SupervisorComment null.String `db:"supervisor_comment"`
	SubmittedAt       null.Time   `db:"submitted_at"`
	ReviewedAt        null.Time   `db:"reviewed_at"`
	CreatedAt         null.Time   `db:"created_at"`
	UpdatedAt         null.Time   `db:"updated_at"`
}

func (r logbookRow) entry() logbook.Entry {
	return logbook.Entry{
		ID:                r.ID,
		ApplicationID:     r.ApplicationID,
		WeekNumber:        r.WeekNumber,
		WeekStart:         r.WeekStart.Time,
		WeekEnd:           r.WeekEnd.Time,
		Activities:        r.Activities,
		SkillsLearned:     r.SkillsLearned.String,
		Challenges:        r.Challenges.String,
		LessonsLearned:    r.LessonsLearned.String,
		Status:            r.Status,
		SupervisorComment: r.SupervisorComment.String,
		SubmittedAt:       r.SubmittedAt.Time,
		ReviewedAt:        r.ReviewedAt.Time,
		CreatedAt:         r.CreatedAt.Time,
		UpdatedAt:         r.UpdatedAt.Time,
	}
}

type logbookRepository struct {
	db *sqlx.DB
}

var _ logbook.Repository = (*logbookRepository)(nil) // interface compliance check

func NewLogbookRepository(db *sqlx.DB) *logbookRepository {
	return &logbookRepository{db: db}
}

func (repo logbookRepository) CreateEntry(ctx context.Context, entry logbook.Entry, exec ...core.DBExecutor) (logbook.Entry, error) {
	query := `
		INSERT INTO logbook_entry (id, application_id, week_number, week_start, week_end, activities,
		                           skills_learned, challenges, lessons_learned, status, supervisor_comment,
		                           submitted_at, reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		entry.ID, entry.ApplicationID, entry.WeekNumber, entry.WeekStart.UTC(), entry.WeekEnd.UTC(),
		entry.Activities, null.NewString(entry.SkillsLearned, entry.SkillsLearned != ""),
		null.NewString(entry.Challenges, entry.Challenges != ""),
		null.NewString(entry.LessonsLearned, entry.LessonsLearned != ""), entry.Status,
		null.NewString(entry.SupervisorComment, entry.SupervisorComment != ""),
		null.NewTime(entry.SubmittedAt.UTC(), !entry.SubmittedAt.IsZero()),
		null.NewTime(entry.ReviewedAt.UTC(), !entry.ReviewedAt.IsZero()),
		entry.CreatedAt.UTC(), entry.UpdatedAt.UTC()); err != nil {
		return logbook.Entry{}, errors.Wrap(err, "inserting logbook entry")
	}
	return entry, nil
}

func (repo logbookRepository) QueryEntries(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]logbook.Entry, error) {
	var rows []logbookRow
	query := `SELECT * FROM logbook_entry WHERE application_id = $1 ORDER BY week_number ASC`
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, applicationID); err != nil {
		return nil, errors.Wrap(err, "querying logbook entries")
	}
	entries := make([]logbook.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

func (repo logbookRepository) GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (logbook.Entry, error) {
	var row logbookRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM logbook_entry WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return logbook.Entry{}, logbook.ErrNotFound
		}
		return logbook.Entry{}, errors.Wrap(err, "getting logbook entry")
	}
	return row.entry(), nil
}

func (repo logbookRepository) GetEntryByWeek(ctx context.Context, applicationID string, weekNumber int, exec ...core.DBExecutor) (logbook.Entry, error) {
	var row logbookRow
	query := `SELECT * FROM logbook_entry WHERE application_id = $1 AND week_number = $2`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, query, applicationID, weekNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return logbook.Entry{}, logbook.ErrNotFound
		}
		return logbook.Entry{}, errors.Wrap(err, "getting logbook entry")
	}
	return row.entry(), nil
}

func (repo logbookRepository) UpdateEntry(ctx context.Context, entry logbook.Entry, exec ...core.DBExecutor) (logbook.Entry, error) {
	query := `
		UPDATE logbook_entry
		SET activities = $2, skills_learned = $3, challenges = $4, lessons_learned = $5, status = $6,
		    supervisor_comment = $7, submitted_at = $8, reviewed_at = $9, updated_at = $10
		WHERE id = $1`
	res, err := ext(repo.db, exec).ExecContext(ctx, query,
		entry.ID, entry.Activities, null.NewString(entry.SkillsLearned, entry.SkillsLearned != ""),
		null.NewString(entry.Challenges, entry.Challenges != ""),
		null.NewString(entry.LessonsLearned, entry.LessonsLearned != ""), entry.Status,
		null.NewString(entry.SupervisorComment, entry.SupervisorComment != ""),
		null.NewTime(entry.SubmittedAt.UTC(), !entry.SubmittedAt.IsZero()),
		null.NewTime(entry.ReviewedAt.UTC(), !entry.ReviewedAt.IsZero()), entry.UpdatedAt.UTC())
	if err != nil {
		return logbook.Entry{}, errors.Wrap(err, "updating logbook entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return logbook.Entry{}, logbook.ErrNotFound
	}
	return entry, nil
}
