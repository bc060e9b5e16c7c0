package organization

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/notification"
)

var (
	// errors
	ErrNotFound     = errors.New("organization not found")
	ErrNotPending   = errors.New("organization is not pending verification")
	ErrCapacityFull = errors.New("organization has no attachment slots left")
)

const defaultMaxStudents = 5

type (
	Repository interface {
		CreateOrganization(ctx context.Context, org Organization, exec ...core.DBExecutor) (Organization, error)
		QueryOrganizations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Organization, error)
		GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (Organization, error)
		UpdateOrganization(ctx context.Context, org Organization, exec ...core.DBExecutor) (Organization, error)
		CountOrganizations(ctx context.Context, verificationStatus string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Register(ctx context.Context, no NewOrganization, createdBy string) (Organization, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Organization, error)
		QueryVerified(ctx context.Context) ([]Organization, error)
		GetByID(ctx context.Context, id string) (Organization, error)
		Update(ctx context.Context, id string, no NewOrganization, actorID string) (Organization, error)
		Verify(ctx context.Context, id string, v Verification, actorID string) (Organization, error)
		Count(ctx context.Context, verificationStatus string) (int, error)
	}

	service struct {
		repo     Repository
		notifier notification.Notifier
		auditRec audit.Recorder
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, notifier notification.Notifier, auditRec audit.Recorder, logger core.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		auditRec: auditRec,
		logger:   logger,
	}
}

func (svc *service) Register(ctx context.Context, no NewOrganization, createdBy string) (Organization, error) {
	now := time.Now().UTC()
	maxStudents := no.MaxStudents
	if maxStudents == 0 {
		maxStudents = defaultMaxStudents
	}
	org := Organization{
		Name:                  no.Name,
		RegistrationNumber:    no.RegistrationNumber,
		CompanyType:           no.CompanyType,
		Industry:              no.Industry,
		PhysicalAddress:       no.PhysicalAddress,
		City:                  no.City,
		County:                no.County,
		Website:               no.Website,
		KRAPin:                no.KRAPin,
		ContactName:           no.ContactName,
		ContactTitle:          no.ContactTitle,
		ContactEmail:          no.ContactEmail,
		ContactPhone:          no.ContactPhone,
		YearEstablished:       no.YearEstablished,
		EmployeeCount:         no.EmployeeCount,
		MaxStudents:           maxStudents,
		ProvidesStipend:       no.ProvidesStipend,
		StipendAmount:         no.StipendAmount,
		ProvidesAccommodation: no.ProvidesAccommodation,
		AccommodationDetails:  no.AccommodationDetails,
		SupervisorName:        no.SupervisorName,
		SupervisorTitle:       no.SupervisorTitle,
		SupervisorEmail:       no.SupervisorEmail,
		SupervisorPhone:       no.SupervisorPhone,
		VerificationStatus:    VerificationPending,
		CreatedBy:             createdBy,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	return svc.repo.CreateOrganization(ctx, org)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Organization, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryOrganizations(ctx, filter, ordering)
}

func (svc *service) QueryVerified(ctx context.Context) ([]Organization, error) {
	return svc.Query(ctx, &QueryFilter{VerificationStatus: VerificationVerified}, nil)
}

func (svc *service) GetByID(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganization(ctx, id)
}

// Update overwrites an organization's profile. Verification state is left
// untouched; a rejected or pending organization stays that way until a
// coordinator rules on it.
func (svc *service) Update(ctx context.Context, id string, no NewOrganization, actorID string) (Organization, error) {
	org, err := svc.repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, err
	}

	org.Name = no.Name
	org.RegistrationNumber = no.RegistrationNumber
	org.CompanyType = no.CompanyType
	org.Industry = no.Industry
	org.PhysicalAddress = no.PhysicalAddress
	org.City = no.City
	org.County = no.County
	org.Website = no.Website
	org.KRAPin = no.KRAPin
	org.ContactName = no.ContactName
	org.ContactTitle = no.ContactTitle
	org.ContactEmail = no.ContactEmail
	org.ContactPhone = no.ContactPhone
	org.YearEstablished = no.YearEstablished
	org.EmployeeCount = no.EmployeeCount
	if no.MaxStudents > 0 {
		org.MaxStudents = no.MaxStudents
	}
	org.ProvidesStipend = no.ProvidesStipend
	org.StipendAmount = no.StipendAmount
	org.ProvidesAccommodation = no.ProvidesAccommodation
	org.AccommodationDetails = no.AccommodationDetails
	org.SupervisorName = no.SupervisorName
	org.SupervisorTitle = no.SupervisorTitle
	org.SupervisorEmail = no.SupervisorEmail
	org.SupervisorPhone = no.SupervisorPhone
	org.UpdatedAt = time.Now().UTC()

	org, err = svc.repo.UpdateOrganization(ctx, org)
	if err != nil {
		return Organization{}, err
	}

	if err = svc.auditRec.Record(ctx, actorID, "organization.updated", "organization", org.ID, map[string]interface{}{
		"name": org.Name,
	}); err != nil {
		svc.logger.Warn("recording organization update", err)
	}
	return org, nil
}

func (svc *service) Verify(ctx context.Context, id string, v Verification, actorID string) (Organization, error) {
	org, err := svc.repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if org.VerificationStatus != VerificationPending {
		return Organization{}, core.NewValidationError(ErrNotPending)
	}

	org.VerificationStatus = v.Status
	org.RejectionReason = v.Reason
	org.UpdatedAt = time.Now().UTC()

	org, err = svc.repo.UpdateOrganization(ctx, org)
	if err != nil {
		return Organization{}, err
	}

	if org.CreatedBy != "" {
		msg := fmt.Sprintf("Organization %q has been %s.", org.Name, org.VerificationStatus)
		if org.VerificationStatus == VerificationRejected {
			msg = fmt.Sprintf("Organization %q has been rejected: %s", org.Name, org.RejectionReason)
		}
		if err = svc.notifier.Notify(ctx, org.CreatedBy, "Organization Verification", msg, "/organizations/"+org.ID); err != nil {
			svc.logger.Warn("notifying organization registrant", err)
		}
	}
	if err = svc.auditRec.Record(ctx, actorID, "organization."+org.VerificationStatus, "organization", org.ID, map[string]interface{}{
		"name":   org.Name,
		"reason": org.RejectionReason,
	}); err != nil {
		svc.logger.Warn("recording organization verification", err)
	}

	return org, nil
}

func (svc *service) Count(ctx context.Context, verificationStatus string) (int, error) {
	return svc.repo.CountOrganizations(ctx, verificationStatus)
}
