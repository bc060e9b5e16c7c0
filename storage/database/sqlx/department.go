package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/department"
)

type departmentRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	CreatedAt null.Time `db:"created_at"`
}

func (r departmentRow) department() department.Department {
	return department.Department{
		ID:        r.ID,
		Name:      r.Name,
		Code:      r.Code,
		CreatedAt: r.CreatedAt.Time,
	}
}

type supervisorRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	DepartmentID string      `db:"department_id"`
	Title        null.String `db:"title"`
	MaxStudents  int         `db:"max_students"`
	CreatedAt    null.Time   `db:"created_at"`

	Name           null.String `db:"name"`
	Email          null.String `db:"email"`
	DepartmentName null.String `db:"department_name"`
}

func (r supervisorRow) supervisor() department.Supervisor {
	return department.Supervisor{
		ID:             r.ID,
		UserID:         r.UserID,
		DepartmentID:   r.DepartmentID,
		Title:          r.Title.String,
		MaxStudents:    r.MaxStudents,
		CreatedAt:      r.CreatedAt.Time,
		Name:           r.Name.String,
		Email:          r.Email.String,
		DepartmentName: r.DepartmentName.String,
	}
}

const supervisorSelect = `
	SELECT s.*, u.name AS name, u.email AS email, d.name AS department_name
	FROM supervisor s
	JOIN "user" u ON u.id = s.user_id
	JOIN department d ON d.id = s.department_id`

type departmentRepository struct {
	db *sqlx.DB
}

var _ department.Repository = (*departmentRepository)(nil) // interface compliance check

func NewDepartmentRepository(db *sqlx.DB) *departmentRepository {
	return &departmentRepository{db: db}
}

func (repo departmentRepository) CheckCodeUniqueness(ctx context.Context, code string, exec ...core.DBExecutor) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM department WHERE code = $1)`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &exists, query, code); err != nil {
		return errors.Wrap(err, "checking department code uniqueness")
	}
	if exists {
		return department.ErrCodeExists
	}
	return nil
}

func (repo departmentRepository) CreateDepartment(ctx context.Context, dept department.Department, exec ...core.DBExecutor) (department.Department, error) {
	if dept.ID == "" {
		dept.ID = uuid.New().String()
	}
	query := `INSERT INTO department (id, name, code, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query, dept.ID, dept.Name, dept.Code, dept.CreatedAt.UTC()); err != nil {
		return department.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo departmentRepository) QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]department.Department, error) {
	var rows []departmentRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, `SELECT * FROM department ORDER BY name ASC`); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	depts := make([]department.Department, 0, len(rows))
	for _, row := range rows {
		depts = append(depts, row.department())
	}
	return depts, nil
}

func (repo departmentRepository) GetDepartment(ctx context.Context, id string, exec ...core.DBExecutor) (department.Department, error) {
	var row departmentRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM department WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return department.Department{}, department.ErrNotFound
		}
		return department.Department{}, errors.Wrap(err, "getting department")
	}
	return row.department(), nil
}

func (repo departmentRepository) CreateSupervisor(ctx context.Context, sup department.Supervisor, exec ...core.DBExecutor) (department.Supervisor, error) {
	if sup.ID == "" {
		sup.ID = uuid.New().String()
	}
	query := `INSERT INTO supervisor (id, user_id, department_id, title, max_students, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		sup.ID, sup.UserID, sup.DepartmentID, sup.Title, sup.MaxStudents, sup.CreatedAt.UTC()); err != nil {
		return department.Supervisor{}, errors.Wrap(err, "inserting supervisor")
	}
	return sup, nil
}

func (repo departmentRepository) QuerySupervisors(ctx context.Context, departmentID string, exec ...core.DBExecutor) ([]department.Supervisor, error) {
	query := supervisorSelect
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE s.department_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY u.name ASC`

	var rows []supervisorRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying supervisors")
	}
	sups := make([]department.Supervisor, 0, len(rows))
	for _, row := range rows {
		sups = append(sups, row.supervisor())
	}
	return sups, nil
}

func (repo departmentRepository) GetSupervisor(ctx context.Context, id string, exec ...core.DBExecutor) (department.Supervisor, error) {
	var row supervisorRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, supervisorSelect+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return department.Supervisor{}, department.ErrSupervisorNotFound
		}
		return department.Supervisor{}, errors.Wrap(err, "getting supervisor")
	}
	return row.supervisor(), nil
}

func (repo departmentRepository) GetSupervisorByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (department.Supervisor, error) {
	var row supervisorRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, supervisorSelect+` WHERE s.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return department.Supervisor{}, department.ErrSupervisorNotFound
		}
		return department.Supervisor{}, errors.Wrap(err, "getting supervisor")
	}
	return row.supervisor(), nil
}
