package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/attachment"
)

type attachmentRepository struct {
	db *DB
}

var _ attachment.Repository = (*attachmentRepository)(nil)

func NewAttachmentRepository(db *DB) *attachmentRepository {
	return &attachmentRepository{db: db}
}

func (repo *attachmentRepository) CreatePeriod(ctx context.Context, period attachment.Period, exec ...core.DBExecutor) (attachment.Period, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.periods[period.ID] = &period
	return period, nil
}

func (repo *attachmentRepository) QueryPeriods(ctx context.Context, exec ...core.DBExecutor) ([]attachment.Period, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	periods := make([]attachment.Period, 0, len(repo.db.periods))
	for _, period := range repo.db.periods {
		periods = append(periods, *period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].StartDate.After(periods[j].StartDate) })
	return periods, nil
}

func (repo *attachmentRepository) GetPeriod(ctx context.Context, id string, exec ...core.DBExecutor) (attachment.Period, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if period, ok := repo.db.periods[id]; ok {
		return *period, nil
	}
	return attachment.Period{}, attachment.ErrPeriodNotFound
}

func (repo *attachmentRepository) GetActivePeriod(ctx context.Context, exec ...core.DBExecutor) (attachment.Period, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, period := range repo.db.periods {
		if period.IsActive {
			return *period, nil
		}
	}
	return attachment.Period{}, attachment.ErrNoActivePeriod
}

func (repo *attachmentRepository) DeactivatePeriods(ctx context.Context, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, period := range repo.db.periods {
		period.IsActive = false
	}
	return nil
}

func (repo *attachmentRepository) fill(app attachment.Application) attachment.Application {
	if std, ok := repo.db.students[app.StudentID]; ok {
		app.StudentRegNo = std.RegistrationNumber
		if usr, ok := repo.db.users[std.UserID]; ok {
			app.StudentName = usr.Name
		}
	}
	if org, ok := repo.db.organizations[app.OrganizationID]; ok {
		app.OrganizationName = org.Name
	}
	if sup, ok := repo.db.supervisors[app.SupervisorID]; ok {
		if usr, ok := repo.db.users[sup.UserID]; ok {
			app.SupervisorName = usr.Name
		}
	}
	return app
}

func (repo *attachmentRepository) CreateApplication(ctx context.Context, app attachment.Application, exec ...core.DBExecutor) (attachment.Application, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.applications[app.ID] = &app
	return repo.fill(app), nil
}

func (repo *attachmentRepository) QueryApplications(ctx context.Context, filter *attachment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attachment.Application, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	apps := make([]attachment.Application, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		if filter != nil && !matchApplication(*app, filter) {
			continue
		}
		apps = append(apps, repo.fill(*app))
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps, nil
}

func matchApplication(app attachment.Application, filter *attachment.QueryFilter) bool {
	if filter.StudentID != "" && app.StudentID != filter.StudentID {
		return false
	}
	if filter.OrganizationID != "" && app.OrganizationID != filter.OrganizationID {
		return false
	}
	if filter.PeriodID != "" && app.PeriodID != filter.PeriodID {
		return false
	}
	if filter.SupervisorID != "" && app.SupervisorID != filter.SupervisorID {
		return false
	}
	if filter.Status != "" && app.Status != filter.Status {
		return false
	}
	return true
}

func (repo *attachmentRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (attachment.Application, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return repo.fill(*app), nil
	}
	return attachment.Application{}, attachment.ErrNotFound
}

func (repo *attachmentRepository) UpdateApplication(ctx context.Context, app attachment.Application, exec ...core.DBExecutor) (attachment.Application, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.applications[app.ID]; !ok {
		return attachment.Application{}, attachment.ErrNotFound
	}
	repo.db.applications[app.ID] = &app
	return repo.fill(app), nil
}

func (repo *attachmentRepository) HasOpenApplication(ctx context.Context, studentID, periodID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, app := range repo.db.applications {
		if app.StudentID == studentID && app.PeriodID == periodID && !app.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (repo *attachmentRepository) CountActiveByOrganization(ctx context.Context, orgID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, app := range repo.db.applications {
		if app.OrganizationID == orgID && app.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (repo *attachmentRepository) CountActiveBySupervisor(ctx context.Context, supervisorID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, app := range repo.db.applications {
		if app.SupervisorID == supervisorID && app.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (repo *attachmentRepository) CountApplicationsByStatus(ctx context.Context, exec ...core.DBExecutor) (map[attachment.Status]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[attachment.Status]int)
	for _, app := range repo.db.applications {
		counts[app.Status]++
	}
	return counts, nil
}
