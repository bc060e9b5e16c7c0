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
	"github.com/trezcool/tarajali/core/organization"
)

type organizationRow struct {
	ID                    string       `db:"id"`
	Name                  string       `db:"name"`
	RegistrationNumber    null.String  `db:"registration_number"`
	CompanyType           null.String  `db:"company_type"`
	Industry              null.String  `db:"industry"`
	PhysicalAddress       null.String  `db:"physical_address"`
	City                  null.String  `db:"city"`
	County                null.String  `db:"county"`
	Website               null.String  `db:"website"`
	KRAPin                null.String  `db:"kra_pin"`
	ContactName           null.String  `db:"contact_name"`
	ContactTitle          null.String  `db:"contact_title"`
	ContactEmail          null.String  `db:"contact_email"`
	ContactPhone          null.String  `db:"contact_phone"`
	YearEstablished       null.Int     `db:"year_established"`
	EmployeeCount         null.Int     `db:"employee_count"`
	MaxStudents           int          `db:"max_students"`
	ProvidesStipend       null.Bool    `db:"provides_stipend"`
	StipendAmount         null.Float64 `db:"stipend_amount"`
	ProvidesAccommodation null.Bool    `db:"provides_accommodation"`
	AccommodationDetails  null.String  `db:"accommodation_details"`
	SupervisorName        null.String  `db:"supervisor_name"`
	SupervisorTitle       null.String  `db:"supervisor_title"`
	SupervisorEmail       null.String  `db:"supervisor_email"`
	SupervisorPhone       null.String  `db:"supervisor_phone"`
	VerificationStatus    string       `db:"verification_status"`
	RejectionReason       null.String  `db:"rejection_reason"`
	CreatedBy             null.String  `db:"created_by"`
	CreatedAt             null.Time    `db:"created_at"`
	UpdatedAt             null.Time    `db:"updated_at"`
}

func (r organizationRow) organization() organization.Organization {
	return organization.Organization{
		ID:                    r.ID,
		Name:                  r.Name,
		RegistrationNumber:    r.RegistrationNumber.String,
		CompanyType:           r.CompanyType.String,
		Industry:              r.Industry.String,
		PhysicalAddress:       r.PhysicalAddress.String,
		City:                  r.City.String,
		County:                r.County.String,
		Website:               r.Website.String,
		KRAPin:                r.KRAPin.String,
		ContactName:           r.ContactName.String,
		ContactTitle:          r.ContactTitle.String,
		ContactEmail:          r.ContactEmail.String,
		ContactPhone:          r.ContactPhone.String,
		YearEstablished:       r.YearEstablished.Int,
		EmployeeCount:         r.EmployeeCount.Int,
		MaxStudents:           r.MaxStudents,
		ProvidesStipend:       r.ProvidesStipend.Bool,
		StipendAmount:         r.StipendAmount.Float64,
		ProvidesAccommodation: r.ProvidesAccommodation.Bool,
		AccommodationDetails:  r.AccommodationDetails.String,
		SupervisorName:        r.SupervisorName.String,
		SupervisorTitle:       r.SupervisorTitle.String,
		SupervisorEmail:       r.SupervisorEmail.String,
		SupervisorPhone:       r.SupervisorPhone.String,
		VerificationStatus:    r.VerificationStatus,
		RejectionReason:       r.RejectionReason.String,
		CreatedBy:             r.CreatedBy.String,
		CreatedAt:             r.CreatedAt.Time,
		UpdatedAt:             r.UpdatedAt.Time,
	}
}

func newOrganizationRow(org organization.Organization) organizationRow {
	return organizationRow{
		ID:                    org.ID,
		Name:                  org.Name,
		RegistrationNumber:    null.NewString(org.RegistrationNumber, org.RegistrationNumber != ""),
		CompanyType:           null.NewString(org.CompanyType, org.CompanyType != ""),
		Industry:              null.NewString(org.Industry, org.Industry != ""),
		PhysicalAddress:       null.NewString(org.PhysicalAddress, org.PhysicalAddress != ""),
		City:                  null.NewString(org.City, org.City != ""),
		County:                null.NewString(org.County, org.County != ""),
		Website:               null.NewString(org.Website, org.Website != ""),
		KRAPin:                null.NewString(org.KRAPin, org.KRAPin != ""),
		ContactName:           null.NewString(org.ContactName, org.ContactName != ""),
		ContactTitle:          null.NewString(org.ContactTitle, org.ContactTitle != ""),
		ContactEmail:          null.NewString(org.ContactEmail, org.ContactEmail != ""),
		ContactPhone:          null.NewString(org.ContactPhone, org.ContactPhone != ""),
		YearEstablished:       null.NewInt(org.YearEstablished, org.YearEstablished != 0),
		EmployeeCount:         null.NewInt(org.EmployeeCount, org.EmployeeCount != 0),
		MaxStudents:           org.MaxStudents,
		ProvidesStipend:       null.BoolFrom(org.ProvidesStipend),
		StipendAmount:         null.NewFloat64(org.StipendAmount, org.StipendAmount != 0),
		ProvidesAccommodation: null.BoolFrom(org.ProvidesAccommodation),
		AccommodationDetails:  null.NewString(org.AccommodationDetails, org.AccommodationDetails != ""),
		SupervisorName:        null.NewString(org.SupervisorName, org.SupervisorName != ""),
		SupervisorTitle:       null.NewString(org.SupervisorTitle, org.SupervisorTitle != ""),
		SupervisorEmail:       null.NewString(org.SupervisorEmail, org.SupervisorEmail != ""),
		SupervisorPhone:       null.NewString(org.SupervisorPhone, org.SupervisorPhone != ""),
		VerificationStatus:    org.VerificationStatus,
		RejectionReason:       null.NewString(org.RejectionReason, org.RejectionReason != ""),
		CreatedBy:             null.NewString(org.CreatedBy, org.CreatedBy != ""),
		CreatedAt:             null.NewTime(org.CreatedAt.UTC(), !org.CreatedAt.IsZero()),
		UpdatedAt:             null.NewTime(org.UpdatedAt.UTC(), !org.UpdatedAt.IsZero()),
	}
}

var organizationOrderable = map[string]string{
	"name":                "name",
	"industry":            "industry",
	"city":                "city",
	"county":              "county",
	"max_students":        "max_students",
	"verification_status": "verification_status",
	"created_at":          "created_at",
}

type organizationRepository struct {
	db *sqlx.DB
}

var _ organization.Repository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *sqlx.DB) *organizationRepository {
	return &organizationRepository{db: db}
}

func (repo organizationRepository) CreateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	row := newOrganizationRow(org)
	query := `
		INSERT INTO organization (id, name, registration_number, company_type, industry, physical_address, city, county,
		                          website, kra_pin, contact_name, contact_title, contact_email, contact_phone,
		                          year_established, employee_count, max_students, provides_stipend, stipend_amount,
		                          provides_accommodation, accommodation_details, supervisor_name, supervisor_title,
		                          supervisor_email, supervisor_phone, verification_status, rejection_reason,
		                          created_by, created_at, updated_at)
		VALUES (:id, :name, :registration_number, :company_type, :industry, :physical_address, :city, :county,
		        :website, :kra_pin, :contact_name, :contact_title, :contact_email, :contact_phone,
		        :year_established, :employee_count, :max_students, :provides_stipend, :stipend_amount,
		        :provides_accommodation, :accommodation_details, :supervisor_name, :supervisor_title,
		        :supervisor_email, :supervisor_phone, :verification_status, :rejection_reason,
		        :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(repo.db, exec), query, row); err != nil {
		return organization.Organization{}, errors.Wrap(err, "inserting organization")
	}
	return row.organization(), nil
}

func (repo organizationRepository) QueryOrganizations(ctx context.Context, filter *organization.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]organization.Organization, error) {
	query := `SELECT * FROM organization`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR industry ILIKE %[1]s OR city ILIKE %[1]s)", p))
		}
		if filter.Industry != "" {
			conds = append(conds, "industry ILIKE "+arg("%"+filter.Industry+"%"))
		}
		if filter.City != "" {
			conds = append(conds, "city ILIKE "+arg(filter.City))
		}
		if filter.County != "" {
			conds = append(conds, "county ILIKE "+arg(filter.County))
		}
		if filter.VerificationStatus != "" {
			conds = append(conds, "verification_status = "+arg(filter.VerificationStatus))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if clause := orderBy(ordering, organizationOrderable); clause != "" {
		query += clause
	} else {
		query += " ORDER BY name ASC"
	}

	var rows []organizationRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying organizations")
	}
	orgs := make([]organization.Organization, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, row.organization())
	}
	return orgs, nil
}

func (repo organizationRepository) GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (organization.Organization, error) {
	var row organizationRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM organization WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, errors.Wrap(err, "getting organization")
	}
	return row.organization(), nil
}

func (repo organizationRepository) UpdateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	row := newOrganizationRow(org)
	query := `
		UPDATE organization
		SET name = :name, registration_number = :registration_number, company_type = :company_type,
		    industry = :industry, physical_address = :physical_address, city = :city, county = :county,
		    website = :website, kra_pin = :kra_pin, contact_name = :contact_name, contact_title = :contact_title,
		    contact_email = :contact_email, contact_phone = :contact_phone, year_established = :year_established,
		    employee_count = :employee_count, max_students = :max_students, provides_stipend = :provides_stipend,
		    stipend_amount = :stipend_amount, provides_accommodation = :provides_accommodation,
		    accommodation_details = :accommodation_details, supervisor_name = :supervisor_name,
		    supervisor_title = :supervisor_title, supervisor_email = :supervisor_email,
		    supervisor_phone = :supervisor_phone, verification_status = :verification_status,
		    rejection_reason = :rejection_reason, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, ext(repo.db, exec), query, row)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "updating organization")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return organization.Organization{}, organization.ErrNotFound
	}
	return row.organization(), nil
}

func (repo organizationRepository) CountOrganizations(ctx context.Context, verificationStatus string, exec ...core.DBExecutor) (int, error) {
	query := `SELECT COUNT(*) FROM organization`
	var args []interface{}
	if verificationStatus != "" {
		query += ` WHERE verification_status = $1`
		args = append(args, verificationStatus)
	}
	var count int
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting organizations")
	}
	return count, nil
}
