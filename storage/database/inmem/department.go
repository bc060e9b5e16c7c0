package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/department"
)

type departmentRepository struct {
	db *DB
}

var _ department.Repository = (*departmentRepository)(nil)

func NewDepartmentRepository(db *DB) *departmentRepository {
	return &departmentRepository{db: db}
}

func (repo *departmentRepository) CheckCodeUniqueness(ctx context.Context, code string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, dept := range repo.db.departments {
		if strings.EqualFold(dept.Code, code) {
			return department.ErrCodeExists
		}
	}
	return nil
}

func (repo *departmentRepository) CreateDepartment(ctx context.Context, dept department.Department, exec ...core.DBExecutor) (department.Department, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if dept.ID == "" {
		dept.ID = uuid.New().String()
	}
	repo.db.departments[dept.ID] = &dept
	return dept, nil
}

func (repo *departmentRepository) QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]department.Department, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	depts := make([]department.Department, 0, len(repo.db.departments))
	for _, dept := range repo.db.departments {
		depts = append(depts, *dept)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

func (repo *departmentRepository) GetDepartment(ctx context.Context, id string, exec ...core.DBExecutor) (department.Department, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if dept, ok := repo.db.departments[id]; ok {
		return *dept, nil
	}
	return department.Department{}, department.ErrNotFound
}

func (repo *departmentRepository) fillSupervisor(sup department.Supervisor) department.Supervisor {
	if usr, ok := repo.db.users[sup.UserID]; ok {
		sup.Name = usr.Name
		sup.Email = usr.Email
	}
	if dept, ok := repo.db.departments[sup.DepartmentID]; ok {
		sup.DepartmentName = dept.Name
	}
	return sup
}

func (repo *departmentRepository) CreateSupervisor(ctx context.Context, sup department.Supervisor, exec ...core.DBExecutor) (department.Supervisor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if sup.ID == "" {
		sup.ID = uuid.New().String()
	}
	repo.db.supervisors[sup.ID] = &sup
	return repo.fillSupervisor(sup), nil
}

func (repo *departmentRepository) QuerySupervisors(ctx context.Context, departmentID string, exec ...core.DBExecutor) ([]department.Supervisor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sups := make([]department.Supervisor, 0, len(repo.db.supervisors))
	for _, sup := range repo.db.supervisors {
		if departmentID != "" && sup.DepartmentID != departmentID {
			continue
		}
		sups = append(sups, repo.fillSupervisor(*sup))
	}
	sort.Slice(sups, func(i, j int) bool { return sups[i].Name < sups[j].Name })
	return sups, nil
}

func (repo *departmentRepository) GetSupervisor(ctx context.Context, id string, exec ...core.DBExecutor) (department.Supervisor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sup, ok := repo.db.supervisors[id]; ok {
		return repo.fillSupervisor(*sup), nil
	}
	return department.Supervisor{}, department.ErrSupervisorNotFound
}

func (repo *departmentRepository) GetSupervisorByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (department.Supervisor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sup := range repo.db.supervisors {
		if sup.UserID == userID {
			return repo.fillSupervisor(*sup), nil
		}
	}
	return department.Supervisor{}, department.ErrSupervisorNotFound
}
