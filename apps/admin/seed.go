package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/user"
	appfs "github.com/trezcool/tarajali/fs"
)

const seedPath = "fixtures/seed.yml"

type seedData struct {
	Departments []struct {
		Name string `yaml:"name"`
		Code string `yaml:"code"`
	} `yaml:"departments"`
	Periods []struct {
		Name                string    `yaml:"name"`
		StartDate           time.Time `yaml:"start_date"`
		EndDate             time.Time `yaml:"end_date"`
		ApplicationDeadline time.Time `yaml:"application_deadline"`
		IsActive            bool      `yaml:"is_active"`
	} `yaml:"periods"`
	Users []struct {
		Name     string   `yaml:"name"`
		Username string   `yaml:"username"`
		Email    string   `yaml:"email"`
		Roles    []string `yaml:"roles"`
		Password string   `yaml:"password"`
	} `yaml:"users"`
}

// seed loads the bundled fixtures. Records that already exist are skipped so
// the command can be rerun safely.
func (cli *commandLine) seed() error {
	raw, err := appfs.FS.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "reading seed fixtures")
	}
	var data seedData
	if err = yaml.Unmarshal(raw, &data); err != nil {
		return errors.Wrap(err, "parsing seed fixtures")
	}

	ctx := context.Background()
	if err = cli.seedDepartments(ctx, data); err != nil {
		return err
	}
	if err = cli.seedPeriods(ctx, data); err != nil {
		return err
	}
	return cli.seedUsers(ctx, data)
}

func (cli *commandLine) seedDepartments(ctx context.Context, data seedData) error {
	depts, err := cli.deptRepo.QueryDepartments(ctx)
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	existing := make(map[string]bool, len(depts))
	for _, dept := range depts {
		existing[dept.Code] = true
	}

	now := time.Now().UTC()
	for _, sd := range data.Departments {
		code := core.CleanString(sd.Code, true /* lower */)
		if existing[code] {
			continue
		}
		dept := department.Department{
			Name:      core.CleanString(sd.Name),
			Code:      code,
			CreatedAt: now,
		}
		if _, err = cli.deptRepo.CreateDepartment(ctx, dept); err != nil {
			return errors.Wrapf(err, "creating department %q", code)
		}
		logger.Printf("created department %q", code)
	}
	return nil
}

func (cli *commandLine) seedPeriods(ctx context.Context, data seedData) error {
	periods, err := cli.attRepo.QueryPeriods(ctx)
	if err != nil {
		return errors.Wrap(err, "querying periods")
	}
	existing := make(map[string]bool, len(periods))
	for _, period := range periods {
		existing[period.Name] = true
	}

	for _, sp := range data.Periods {
		name := core.CleanString(sp.Name)
		if existing[name] {
			continue
		}
		np := attachment.NewPeriod{
			Name:                name,
			StartDate:           sp.StartDate,
			EndDate:             sp.EndDate,
			ApplicationDeadline: sp.ApplicationDeadline,
			IsActive:            sp.IsActive,
		}
		if np.IsActive {
			if err = cli.attRepo.DeactivatePeriods(ctx); err != nil {
				return errors.Wrap(err, "deactivating periods")
			}
		}
		if _, err = cli.attRepo.CreatePeriod(ctx, np.Period()); err != nil {
			return errors.Wrapf(err, "creating period %q", name)
		}
		logger.Printf("created period %q", name)
	}
	return nil
}

func (cli *commandLine) seedUsers(ctx context.Context, data seedData) error {
	now := time.Now().UTC()
	for _, su := range data.Users {
		uname := core.CleanString(su.Username, true /* lower */)
		if _, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname}); err == nil {
			continue
		} else if err != user.ErrNotFound {
			return errors.Wrapf(err, "looking up user %q", uname)
		}

		for _, role := range su.Roles {
			if user.RolePriority(role) == 0 {
				return fmt.Errorf("user %q: unknown role %q", uname, role)
			}
		}
		usr := user.User{
			Name:      core.CleanString(su.Name),
			Username:  uname,
			Email:     core.CleanString(su.Email, true /* lower */),
			Roles:     su.Roles,
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(su.Password); err != nil {
			return errors.Wrapf(err, "setting password for %q", uname)
		}
		if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return errors.Wrapf(err, "creating user %q", uname)
		}
		logger.Printf("created user %q", uname)
	}
	return nil
}
