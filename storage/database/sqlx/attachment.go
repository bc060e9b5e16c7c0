package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/attachment"
)

type periodRow struct {
	ID                  string    `db:"id"`
	Name                string    `db:"name"`
	StartDate           null.Time `db:"start_date"`
	EndDate             null.Time `db:"end_date"`
	ApplicationDeadline null.Time `db:"application_deadline"`
	IsActive            bool      `db:"is_active"`
	CreatedAt           null.Time `db:"created_at"`
}

func (r periodRow) period() attachment.Period {
	return attachment.Period{
		ID:                  r.ID,
		Name:                r.Name,
		StartDate:           r.StartDate.Time,
		EndDate:             r.EndDate.Time,
		ApplicationDeadline: r.ApplicationDeadline.Time,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt.Time,
	}
}

type applicationRow struct {
	ID             string      `db:"id"`
	StudentID      string      `db:"student_id"`
	OrganizationID string      `db:"organization_id"`
	PeriodID       string      `db:"period_id"`
	SupervisorID   null.String `db:"supervisor_id"`
	Position       string      `db:"position"`
	CoverNote      null.String `db:"cover_note"`
	StartDate      null.Time   `db:"start_date"`
	EndDate        null.Time   `db:"end_date"`
	Status         string      `db:"status"`
	StatusReason   null.String `db:"status_reason"`
	SubmittedAt    null.Time   `db:"submitted_at"`
	DecidedAt      null.Time   `db:"decided_at"`
	CreatedAt      null.Time   `db:"created_at"`
	UpdatedAt      null.Time   `db:"updated_at"`

	StudentName      null.String `db:"student_name"`
	StudentRegNo     null.String `db:"student_reg_no"`
	OrganizationName null.String `db:"organization_name"`
	SupervisorName   null.String `db:"supervisor_name"`
}

func (r applicationRow) application() attachment.Application {
	return attachment.Application{
		ID:               r.ID,
		StudentID:        r.StudentID,
		OrganizationID:   r.OrganizationID,
		PeriodID:         r.PeriodID,
		SupervisorID:     r.SupervisorID.String,
		Position:         r.Position,
		CoverNote:        r.CoverNote.String,
		StartDate:        r.StartDate.Time,
		EndDate:          r.EndDate.Time,
		Status:           attachment.Status(r.Status),
		StatusReason:     r.StatusReason.String,
		SubmittedAt:      r.SubmittedAt.Time,
		DecidedAt:        r.DecidedAt.Time,
		CreatedAt:        r.CreatedAt.Time,
		UpdatedAt:        r.UpdatedAt.Time,
		StudentName:      r.StudentName.String,
		StudentRegNo:     r.StudentRegNo.String,
		OrganizationName: r.OrganizationName.String,
		SupervisorName:   r.SupervisorName.String,
	}
}

const applicationSelect = `
	SELECT a.*, su.name AS student_name, s.registration_number AS student_reg_no,
	       o.name AS organization_name, vu.name AS supervisor_name
	FROM application a
	JOIN student s ON s.id = a.student_id
	JOIN "user" su ON su.id = s.user_id
	JOIN organization o ON o.id = a.organization_id
	LEFT JOIN supervisor v ON v.id = a.supervisor_id
	LEFT JOIN "user" vu ON vu.id = v.user_id`

// statuses that hold an attachment slot
const activeStatuses = `('placed', 'ongoing')`

var applicationOrderable = map[string]string{
	"position":     "a.position",
	"status":       "a.status",
	"start_date":   "a.start_date",
	"end_date":     "a.end_date",
	"submitted_at": "a.submitted_at",
	"created_at":   "a.created_at",
	"student_name": "su.name",
}

type attachmentRepository struct {
	db *sqlx.DB
}

var _ attachment.Repository = (*attachmentRepository)(nil) // interface compliance check

func NewAttachmentRepository(db *sqlx.DB) *attachmentRepository {
	return &attachmentRepository{db: db}
}

func (repo attachmentRepository) CreatePeriod(ctx context.Context, period attachment.Period, exec ...core.DBExecutor) (attachment.Period, error) {
	query := `
		INSERT INTO attachment_period (id, name, start_date, end_date, application_deadline, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		period.ID, period.Name, period.StartDate.UTC(), period.EndDate.UTC(),
		period.ApplicationDeadline.UTC(), period.IsActive, period.CreatedAt.UTC()); err != nil {
		return attachment.Period{}, errors.Wrap(err, "inserting period")
	}
	return period, nil
}

func (repo attachmentRepository) QueryPeriods(ctx context.Context, exec ...core.DBExecutor) ([]attachment.Period, error) {
	var rows []periodRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, `SELECT * FROM attachment_period ORDER BY start_date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying periods")
	}
	periods := make([]attachment.Period, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, row.period())
	}
	return periods, nil
}

func (repo attachmentRepository) GetPeriod(ctx context.Context, id string, exec ...core.DBExecutor) (attachment.Period, error) {
	var row periodRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM attachment_period WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attachment.Period{}, attachment.ErrPeriodNotFound
		}
		return attachment.Period{}, errors.Wrap(err, "getting period")
	}
	return row.period(), nil
}

func (repo attachmentRepository) GetActivePeriod(ctx context.Context, exec ...core.DBExecutor) (attachment.Period, error) {
	var row periodRow
	query := `SELECT * FROM attachment_period WHERE is_active ORDER BY start_date DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attachment.Period{}, attachment.ErrNoActivePeriod
		}
		return attachment.Period{}, errors.Wrap(err, "getting active period")
	}
	return row.period(), nil
}

func (repo attachmentRepository) DeactivatePeriods(ctx context.Context, exec ...core.DBExecutor) error {
	if _, err := ext(repo.db, exec).ExecContext(ctx, `UPDATE attachment_period SET is_active = FALSE WHERE is_active`); err != nil {
		return errors.Wrap(err, "deactivating periods")
	}
	return nil
}

func (repo attachmentRepository) CreateApplication(ctx context.Context, app attachment.Application, exec ...core.DBExecutor) (attachment.Application, error) {
	query := `
		INSERT INTO application (id, student_id, organization_id, period_id, supervisor_id, position, cover_note,
		                         start_date, end_date, status, status_reason, submitted_at, decided_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		app.ID, app.StudentID, app.OrganizationID, app.PeriodID,
		null.NewString(app.SupervisorID, app.SupervisorID != ""), app.Position,
		null.NewString(app.CoverNote, app.CoverNote != ""), app.StartDate.UTC(), app.EndDate.UTC(),
		string(app.Status), null.NewString(app.StatusReason, app.StatusReason != ""),
		null.NewTime(app.SubmittedAt.UTC(), !app.SubmittedAt.IsZero()),
		null.NewTime(app.DecidedAt.UTC(), !app.DecidedAt.IsZero()),
		app.CreatedAt.UTC(), app.UpdatedAt.UTC()); err != nil {
		return attachment.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo attachmentRepository) QueryApplications(ctx context.Context, filter *attachment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attachment.Application, error) {
	query := applicationSelect
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			conds = append(conds, "a.student_id = "+arg(filter.StudentID))
		}
		if filter.OrganizationID != "" {
			conds = append(conds, "a.organization_id = "+arg(filter.OrganizationID))
		}
		if filter.PeriodID != "" {
			conds = append(conds, "a.period_id = "+arg(filter.PeriodID))
		}
		if filter.SupervisorID != "" {
			conds = append(conds, "a.supervisor_id = "+arg(filter.SupervisorID))
		}
		if filter.Status != "" {
			conds = append(conds, "a.status = "+arg(string(filter.Status)))
		}
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(su.name ILIKE %[1]s OR o.name ILIKE %[1]s OR a.position ILIKE %[1]s)", p))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if clause := orderBy(ordering, applicationOrderable); clause != "" {
		query += clause
	} else {
		query += " ORDER BY a.created_at DESC"
	}

	var rows []applicationRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	apps := make([]attachment.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.application())
	}
	return apps, nil
}

func (repo attachmentRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (attachment.Application, error) {
	var row applicationRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, applicationSelect+` WHERE a.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attachment.Application{}, attachment.ErrNotFound
		}
		return attachment.Application{}, errors.Wrap(err, "getting application")
	}
	return row.application(), nil
}

func (repo attachmentRepository) UpdateApplication(ctx context.Context, app attachment.Application, exec ...core.DBExecutor) (attachment.Application, error) {
	query := `
		UPDATE application
		SET supervisor_id = $2, position = $3, cover_note = $4, start_date = $5, end_date = $6,
		    status = $7, status_reason = $8, submitted_at = $9, decided_at = $10, updated_at = $11
		WHERE id = $1`
	res, err := ext(repo.db, exec).ExecContext(ctx, query,
		app.ID, null.NewString(app.SupervisorID, app.SupervisorID != ""), app.Position,
		null.NewString(app.CoverNote, app.CoverNote != ""), app.StartDate.UTC(), app.EndDate.UTC(),
		string(app.Status), null.NewString(app.StatusReason, app.StatusReason != ""),
		null.NewTime(app.SubmittedAt.UTC(), !app.SubmittedAt.IsZero()),
		null.NewTime(app.DecidedAt.UTC(), !app.DecidedAt.IsZero()), app.UpdatedAt.UTC())
	if err != nil {
		return attachment.Application{}, errors.Wrap(err, "updating application")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attachment.Application{}, attachment.ErrNotFound
	}
	return app, nil
}

func (repo attachmentRepository) HasOpenApplication(ctx context.Context, studentID, periodID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM application
			WHERE student_id = $1 AND period_id = $2
			  AND status NOT IN ('rejected', 'withdrawn', 'completed', 'terminated')
		)`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &exists, query, studentID, periodID); err != nil {
		return false, errors.Wrap(err, "checking open applications")
	}
	return exists, nil
}

func (repo attachmentRepository) CountActiveByOrganization(ctx context.Context, orgID string, exec ...core.DBExecutor) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM application WHERE organization_id = $1 AND status IN ` + activeStatuses
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &count, query, orgID); err != nil {
		return 0, errors.Wrap(err, "counting active organization attachments")
	}
	return count, nil
}

func (repo attachmentRepository) CountActiveBySupervisor(ctx context.Context, supervisorID string, exec ...core.DBExecutor) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM application WHERE supervisor_id = $1 AND status IN ` + activeStatuses
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &count, query, supervisorID); err != nil {
		return 0, errors.Wrap(err, "counting supervisor attachments")
	}
	return count, nil
}

func (repo attachmentRepository) CountApplicationsByStatus(ctx context.Context, exec ...core.DBExecutor) (map[attachment.Status]int, error) {
	rows, err := ext(repo.db, exec).QueryContext(ctx, `SELECT status, COUNT(*) FROM application GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "counting applications by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[attachment.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "counting applications by status")
		}
		counts[attachment.Status(status)] = count
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "counting applications by status")
	}
	return counts, nil
}
