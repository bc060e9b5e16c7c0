package department

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
)

var (
	// errors
	ErrNotFound           = errors.New("department not found")
	ErrSupervisorNotFound = errors.New("supervisor not found")
	ErrCodeExists         = errors.New("a department with this code already exists")
)

const defaultMaxStudents = 10

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, exec ...core.DBExecutor) error
		CreateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]Department, error)
		GetDepartment(ctx context.Context, id string, exec ...core.DBExecutor) (Department, error)
		CreateSupervisor(ctx context.Context, sup Supervisor, exec ...core.DBExecutor) (Supervisor, error)
		QuerySupervisors(ctx context.Context, departmentID string, exec ...core.DBExecutor) ([]Supervisor, error)
		GetSupervisor(ctx context.Context, id string, exec ...core.DBExecutor) (Supervisor, error)
		GetSupervisorByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (Supervisor, error)
	}

	Service interface {
		CheckCodeUniqueness(ctx context.Context, code string) error
		Create(ctx context.Context, nd NewDepartment) (Department, error)
		QueryAll(ctx context.Context) ([]Department, error)
		GetByID(ctx context.Context, id string) (Department, error)
		AddSupervisor(ctx context.Context, ns NewSupervisor) (Supervisor, error)
		QuerySupervisors(ctx context.Context, departmentID string) ([]Supervisor, error)
		GetSupervisor(ctx context.Context, id string) (Supervisor, error)
		GetSupervisorByUser(ctx context.Context, userID string) (Supervisor, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nd NewDepartment) (Department, error) {
	dept := Department{
		Name:      nd.Name,
		Code:      nd.Code,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateDepartment(ctx, dept)
}

func (svc *service) QueryAll(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *service) AddSupervisor(ctx context.Context, ns NewSupervisor) (Supervisor, error) {
	if _, err := svc.repo.GetDepartment(ctx, ns.DepartmentID); err != nil {
		return Supervisor{}, err
	}
	maxStudents := ns.MaxStudents
	if maxStudents == 0 {
		maxStudents = defaultMaxStudents
	}
	sup := Supervisor{
		UserID:       ns.UserID,
		DepartmentID: ns.DepartmentID,
		Title:        ns.Title,
		MaxStudents:  maxStudents,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateSupervisor(ctx, sup)
}

func (svc *service) QuerySupervisors(ctx context.Context, departmentID string) ([]Supervisor, error) {
	return svc.repo.QuerySupervisors(ctx, departmentID)
}

func (svc *service) GetSupervisor(ctx context.Context, id string) (Supervisor, error) {
	return svc.repo.GetSupervisor(ctx, id)
}

func (svc *service) GetSupervisorByUser(ctx context.Context, userID string) (Supervisor, error) {
	return svc.repo.GetSupervisorByUser(ctx, userID)
}
