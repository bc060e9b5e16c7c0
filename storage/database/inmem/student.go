package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) fill(std student.Student) student.Student {
	if usr, ok := repo.db.users[std.UserID]; ok {
		std.Name = usr.Name
		std.Email = usr.Email
	}
	if dept, ok := repo.db.departments[std.DepartmentID]; ok {
		std.DepartmentName = dept.Name
	}
	return std
}

func (repo *studentRepository) CheckRegNoUniqueness(ctx context.Context, regNo string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if strings.EqualFold(std.RegistrationNumber, regNo) {
			return student.ErrRegNoExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	repo.db.students[std.ID] = &std
	return repo.fill(std), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		filled := repo.fill(*std)
		if filter != nil && !matchStudent(filled, filter) {
			continue
		}
		students = append(students, filled)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].RegistrationNumber < students[j].RegistrationNumber })
	return students, nil
}

func matchStudent(std student.Student, filter *student.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(std.Name), s) &&
			!strings.Contains(strings.ToLower(std.RegistrationNumber), s) &&
			!strings.Contains(strings.ToLower(std.Course), s) {
			return false
		}
	}
	if filter.Course != "" && !strings.Contains(strings.ToLower(std.Course), strings.ToLower(filter.Course)) {
		return false
	}
	if filter.DepartmentID != "" && std.DepartmentID != filter.DepartmentID {
		return false
	}
	if filter.Status != "" && std.Status != filter.Status {
		return false
	}
	return true
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return repo.fill(*std), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if std.UserID == userID {
			return repo.fill(*std), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.students[std.ID] = &std
	return repo.fill(std), nil
}

func (repo *studentRepository) CountStudents(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, std := range repo.db.students {
		if status == "" || std.Status == status {
			count++
		}
	}
	return count, nil
}
