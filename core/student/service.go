package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrRegNoExists = errors.New("a student with this registration number already exists")
)

type (
	Repository interface {
		CheckRegNoUniqueness(ctx context.Context, regNo string, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		GetStudentByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		CountStudents(ctx context.Context, status string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckRegNoUniqueness(ctx context.Context, regNo string) error
		Register(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByUser(ctx context.Context, userID string) (Student, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		SetStatus(ctx context.Context, id, status string) (Student, error)
		Count(ctx context.Context, status string) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckRegNoUniqueness(ctx context.Context, regNo string) error {
	if err := svc.repo.CheckRegNoUniqueness(ctx, regNo); err != nil {
		if errors.Cause(err) == ErrRegNoExists {
			return core.NewValidationError(err, core.FieldError{Field: "registration_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		UserID:             ns.UserID,
		RegistrationNumber: ns.RegistrationNumber,
		Course:             ns.Course,
		DepartmentID:       ns.DepartmentID,
		YearOfStudy:        ns.YearOfStudy,
		CGPA:               ns.CGPA,
		EmergencyName:      ns.EmergencyName,
		EmergencyPhone:     ns.EmergencyPhone,
		EmergencyRelation:  ns.EmergencyRelation,
		Status:             StatusAvailable,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "registration_number", Ascending: true}}
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUser(ctx, userID)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}

	if us.Course != "" {
		std.Course = us.Course
	}
	if us.YearOfStudy != 0 {
		std.YearOfStudy = us.YearOfStudy
	}
	if us.CGPA != 0 {
		std.CGPA = us.CGPA
	}
	if us.EmergencyName != "" {
		std.EmergencyName = us.EmergencyName
	}
	if us.EmergencyPhone != "" {
		std.EmergencyPhone = us.EmergencyPhone
	}
	if us.EmergencyRelation != "" {
		std.EmergencyRelation = us.EmergencyRelation
	}
	std.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) SetStatus(ctx context.Context, id, status string) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	std.Status = status
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) Count(ctx context.Context, status string) (int, error) {
	return svc.repo.CountStudents(ctx, status)
}
