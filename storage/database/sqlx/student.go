package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/student"
)

type studentRow struct {
	ID                string       `db:"id"`
	UserID            string       `db:"user_id"`
	RegistrationNo    string       `db:"registration_number"`
	Course            string       `db:"course"`
	DepartmentID      string       `db:"department_id"`
	YearOfStudy       null.Int     `db:"year_of_study"`
	CGPA              null.Float64 `db:"cgpa"`
	EmergencyName     null.String  `db:"emergency_contact_name"`
	EmergencyPhone    null.String  `db:"emergency_contact_phone"`
	EmergencyRelation null.String  `db:"emergency_contact_relation"`
	Status            string       `db:"status"`
	CreatedAt         null.Time    `db:"created_at"`
	UpdatedAt         null.Time    `db:"updated_at"`

	Name           null.String `db:"name"`
	Email          null.String `db:"email"`
	DepartmentName null.String `db:"department_name"`
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:                 r.ID,
		UserID:             r.UserID,
		RegistrationNumber: r.RegistrationNo,
		Course:             r.Course,
		DepartmentID:       r.DepartmentID,
		YearOfStudy:        r.YearOfStudy.Int,
		CGPA:               r.CGPA.Float64,
		EmergencyName:      r.EmergencyName.String,
		EmergencyPhone:     r.EmergencyPhone.String,
		EmergencyRelation:  r.EmergencyRelation.String,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt.Time,
		UpdatedAt:          r.UpdatedAt.Time,
		Name:               r.Name.String,
		Email:              r.Email.String,
		DepartmentName:     r.DepartmentName.String,
	}
}

const studentSelect = `
	SELECT s.*, u.name AS name, u.email AS email, d.name AS department_name
	FROM student s
	JOIN "user" u ON u.id = s.user_id
	JOIN department d ON d.id = s.department_id`

var studentOrderable = map[string]string{
	"registration_number": "s.registration_number",
	"course":              "s.course",
	"year_of_study":       "s.year_of_study",
	"cgpa":                "s.cgpa",
	"status":              "s.status",
	"created_at":          "s.created_at",
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CheckRegNoUniqueness(ctx context.Context, regNo string, exec ...core.DBExecutor) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM student WHERE registration_number = $1)`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &exists, query, regNo); err != nil {
		return errors.Wrap(err, "checking registration number uniqueness")
	}
	if exists {
		return student.ErrRegNoExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	query := `
		INSERT INTO student (id, user_id, registration_number, course, department_id, year_of_study, cgpa,
		                     emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
		                     status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		std.ID, std.UserID, std.RegistrationNumber, std.Course, std.DepartmentID, std.YearOfStudy, std.CGPA,
		std.EmergencyName, std.EmergencyPhone, std.EmergencyRelation,
		std.Status, std.CreatedAt.UTC(), std.UpdatedAt.UTC()); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	query := studentSelect
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(u.name ILIKE %[1]s OR s.registration_number ILIKE %[1]s OR s.course ILIKE %[1]s)", p))
		}
		if filter.Course != "" {
			conds = append(conds, "s.course ILIKE "+arg("%"+filter.Course+"%"))
		}
		if filter.DepartmentID != "" {
			conds = append(conds, "s.department_id = "+arg(filter.DepartmentID))
		}
		if filter.Status != "" {
			conds = append(conds, "s.status = "+arg(filter.Status))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if clause := orderBy(ordering, studentOrderable); clause != "" {
		query += clause
	} else {
		query += " ORDER BY s.registration_number ASC"
	}

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, studentSelect+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo studentRepository) GetStudentByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, studentSelect+` WHERE s.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	query := `
		UPDATE student
		SET course = $2, year_of_study = $3, cgpa = $4, emergency_contact_name = $5,
		    emergency_contact_phone = $6, emergency_contact_relation = $7, status = $8, updated_at = $9
		WHERE id = $1`
	res, err := ext(repo.db, exec).ExecContext(ctx, query,
		std.ID, std.Course, std.YearOfStudy, std.CGPA, std.EmergencyName,
		std.EmergencyPhone, std.EmergencyRelation, std.Status, std.UpdatedAt.UTC())
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	query := `SELECT COUNT(*) FROM student`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	var count int
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}
