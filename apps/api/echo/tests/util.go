package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/tarajali/apps/api/echo"
	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/announcement"
	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/department"
	"github.com/trezcool/tarajali/core/document"
	"github.com/trezcool/tarajali/core/evaluation"
	"github.com/trezcool/tarajali/core/logbook"
	"github.com/trezcool/tarajali/core/messaging"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"
	emailsvc "github.com/trezcool/tarajali/services/email"
	inmemdb "github.com/trezcool/tarajali/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

const testPassword = "s3cr3t.Pwd"

// env wires the whole app over in-memory repositories.
type env struct {
	db   *inmemdb.DB
	conf *core.Config
	app  Server

	usrSvc   user.Service
	stdSvc   student.Service
	deptSvc  department.Service
	orgSvc   organization.Service
	attSvc   attachment.Service
	logSvc   logbook.Service
	evalSvc  evaluation.Service
	docSvc   document.Service
	notifSvc notification.Service
	msgSvc   messaging.Service
	annSvc   announcement.Service
	auditSvc audit.Service
}

func setup(t *testing.T) *env {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	db := inmemdb.New()
	logger := core.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewServiceMock(inmemdb.NewUserRepository(db), mailSvc, conf)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db), usrSvc, mailSvc, logger)
	auditSvc := audit.NewService(inmemdb.NewAuditRepository(db))
	stdSvc := student.NewService(inmemdb.NewStudentRepository(db))
	deptSvc := department.NewService(inmemdb.NewDepartmentRepository(db))
	orgSvc := organization.NewService(inmemdb.NewOrganizationRepository(db), notifSvc, auditSvc, logger)
	attSvc := attachment.NewService(
		inmemdb.NewAttachmentRepository(db), stdSvc, orgSvc, deptSvc, usrSvc, notifSvc, auditSvc, logger)
	logSvc := logbook.NewService(
		inmemdb.NewLogbookRepository(db), attSvc, stdSvc, deptSvc, notifSvc, auditSvc, logger)
	evalSvc := evaluation.NewService(
		inmemdb.NewEvaluationRepository(db), attSvc, stdSvc, deptSvc, usrSvc, notifSvc, auditSvc, logger)
	docSvc := document.NewService(inmemdb.NewDocumentRepository(db))
	msgSvc := messaging.NewService(inmemdb.NewMessageRepository(db), usrSvc, notifSvc, logger)
	annSvc := announcement.NewService(inmemdb.NewAnnouncementRepository(db), auditSvc, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,

		UserSvc:         usrSvc,
		StudentSvc:      stdSvc,
		DepartmentSvc:   deptSvc,
		OrganizationSvc: orgSvc,
		AttachmentSvc:   attSvc,
		LogbookSvc:      logSvc,
		EvaluationSvc:   evalSvc,
		DocumentSvc:     docSvc,
		NotificationSvc: notifSvc,
		MessagingSvc:    msgSvc,
		AnnouncementSvc: annSvc,
		AuditSvc:        auditSvc,
	})

	return &env{
		db:   db,
		conf: conf,
		app:  app,

		usrSvc:   usrSvc,
		stdSvc:   stdSvc,
		deptSvc:  deptSvc,
		orgSvc:   orgSvc,
		attSvc:   attSvc,
		logSvc:   logSvc,
		evalSvc:  evalSvc,
		docSvc:   docSvc,
		notifSvc: notifSvc,
		msgSvc:   msgSvc,
		annSvc:   annSvc,
		auditSvc: auditSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// Fixtures

func createUser(t *testing.T, e *env, name, uname string, roles []string) user.User {
	t.Helper()
	usr, err := e.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    uname + "@test.tarajali.cd",
		Password: testPassword,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createDepartment(t *testing.T, e *env, name, code string) department.Department {
	t.Helper()
	dept, err := e.deptSvc.Create(context.Background(), department.NewDepartment{Name: name, Code: code})
	if err != nil {
		t.Fatalf("createDepartment() failed: %v", err)
	}
	return dept
}

func createStudent(t *testing.T, e *env, uname string, dept department.Department) (user.User, student.Student) {
	t.Helper()
	usr := createUser(t, e, "Student "+uname, uname, user.StudentRoles)
	std, err := e.stdSvc.Register(context.Background(), student.NewStudent{
		UserID:             usr.ID,
		RegistrationNumber: "reg-" + uname,
		Course:             "BSc Computer Science",
		DepartmentID:       dept.ID,
		YearOfStudy:        3,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return usr, std
}

func createSupervisor(t *testing.T, e *env, uname string, dept department.Department) (user.User, department.Supervisor) {
	t.Helper()
	usr := createUser(t, e, "Supervisor "+uname, uname, user.SupervisorRoles)
	sup, err := e.deptSvc.AddSupervisor(context.Background(), department.NewSupervisor{
		UserID:       usr.ID,
		DepartmentID: dept.ID,
		Title:        "Lecturer",
		MaxStudents:  10,
	})
	if err != nil {
		t.Fatalf("createSupervisor() failed: %v", err)
	}
	return usr, sup
}

func createOrganization(t *testing.T, e *env, name string, verifier user.User) organization.Organization {
	t.Helper()
	ctx := context.Background()
	org, err := e.orgSvc.Register(ctx, organization.NewOrganization{
		Name:     name,
		Industry: "Software",
		City:     "Nairobi",
	}, verifier.ID)
	if err != nil {
		t.Fatalf("createOrganization() failed: %v", err)
	}
	org, err = e.orgSvc.Verify(ctx, org.ID, organization.Verification{Status: organization.VerificationVerified}, verifier.ID)
	if err != nil {
		t.Fatalf("createOrganization(): verifying: %v", err)
	}
	return org
}

func createActivePeriod(t *testing.T, e *env) attachment.Period {
	t.Helper()
	now := time.Now().UTC()
	period, err := e.attSvc.CreatePeriod(context.Background(), attachment.NewPeriod{
		Name:                "Test Period",
		StartDate:           now.AddDate(0, 1, 0),
		EndDate:             now.AddDate(0, 4, 0),
		ApplicationDeadline: now.AddDate(0, 0, 14),
		IsActive:            true,
	})
	if err != nil {
		t.Fatalf("createActivePeriod() failed: %v", err)
	}
	return period
}

// placeOngoing drives a fresh application all the way to ongoing.
func placeOngoing(
	t *testing.T,
	e *env,
	stdUsr, supUsr, coordUsr user.User,
	std student.Student,
	sup department.Supervisor,
	org organization.Organization,
) attachment.Application {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	app, err := e.attSvc.Apply(ctx, attachment.NewApplication{
		OrganizationID: org.ID,
		Position:       "Intern",
		StartDate:      now.AddDate(0, -1, 0),
		EndDate:        now.AddDate(0, 2, 0),
	}, std)
	if err != nil {
		t.Fatalf("placeOngoing(): applying: %v", err)
	}

	steps := []struct {
		to    attachment.Status
		actor user.User
	}{
		{attachment.StatusSubmitted, stdUsr},
		{attachment.StatusVerified, coordUsr},
		{attachment.StatusDepartmentReview, coordUsr},
		{attachment.StatusDepartmentApproved, supUsr},
		{attachment.StatusCoordinatorReview, coordUsr},
		{attachment.StatusApproved, coordUsr},
	}
	for _, step := range steps {
		if app, err = e.attSvc.Transition(ctx, app.ID, attachment.TransitionRequest{Status: step.to}, step.actor); err != nil {
			t.Fatalf("placeOngoing(): moving to %v: %v", step.to, err)
		}
	}
	if app, err = e.attSvc.Place(ctx, app.ID, attachment.Placement{SupervisorID: sup.ID}, coordUsr); err != nil {
		t.Fatalf("placeOngoing(): placing: %v", err)
	}
	if app, err = e.attSvc.Transition(ctx, app.ID, attachment.TransitionRequest{Status: attachment.StatusOngoing}, supUsr); err != nil {
		t.Fatalf("placeOngoing(): starting: %v", err)
	}
	return app
}

// HTTP helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
