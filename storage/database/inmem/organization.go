package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/organization"
)

type organizationRepository struct {
	db *DB
}

var _ organization.Repository = (*organizationRepository)(nil)

func NewOrganizationRepository(db *DB) *organizationRepository {
	return &organizationRepository{db: db}
}

func (repo *organizationRepository) CreateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	repo.db.organizations[org.ID] = &org
	return org, nil
}

func (repo *organizationRepository) QueryOrganizations(ctx context.Context, filter *organization.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]organization.Organization, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	orgs := make([]organization.Organization, 0, len(repo.db.organizations))
	for _, org := range repo.db.organizations {
		if filter != nil && !matchOrganization(*org, filter) {
			continue
		}
		orgs = append(orgs, *org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func matchOrganization(org organization.Organization, filter *organization.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(org.Name), s) &&
			!strings.Contains(strings.ToLower(org.Industry), s) &&
			!strings.Contains(strings.ToLower(org.City), s) {
			return false
		}
	}
	if filter.Industry != "" && !strings.Contains(strings.ToLower(org.Industry), strings.ToLower(filter.Industry)) {
		return false
	}
	if filter.City != "" && !strings.EqualFold(org.City, filter.City) {
		return false
	}
	if filter.County != "" && !strings.EqualFold(org.County, filter.County) {
		return false
	}
	if filter.VerificationStatus != "" && org.VerificationStatus != filter.VerificationStatus {
		return false
	}
	return true
}

func (repo *organizationRepository) GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (organization.Organization, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if org, ok := repo.db.organizations[id]; ok {
		return *org, nil
	}
	return organization.Organization{}, organization.ErrNotFound
}

func (repo *organizationRepository) UpdateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.organizations[org.ID]; !ok {
		return organization.Organization{}, organization.ErrNotFound
	}
	repo.db.organizations[org.ID] = &org
	return org, nil
}

func (repo *organizationRepository) CountOrganizations(ctx context.Context, verificationStatus string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, org := range repo.db.organizations {
		if verificationStatus == "" || org.VerificationStatus == verificationStatus {
			count++
		}
	}
	return count, nil
}
