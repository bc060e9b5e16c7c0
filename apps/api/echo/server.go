package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	// ServerDeps regroups all the dependencies required by the API Server.
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         user.Service
		StudentSvc      student.Service
		DepartmentSvc   department.Service
		OrganizationSvc organization.Service
		AttachmentSvc   attachment.Service
		LogbookSvc      logbook.Service
		EvaluationSvc   evaluation.Service
		DocumentSvc     document.Service
		NotificationSvc notification.Service
		MessagingSvc    messaging.Service
		AnnouncementSvc announcement.Service
		AuditSvc        audit.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	initJWT(deps.Conf)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(metricsMiddleware())
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/metrics", metricsHandler())

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.UserSvc, s.deps.Validate)
	registerDepartmentAPI(v1, jwt, s.deps.DepartmentSvc, s.deps.UserSvc, s.deps.Validate)
	registerOrganizationAPI(v1, jwt, s.deps.OrganizationSvc, s.deps.UserSvc, s.deps.Validate)
	registerApplicationAPI(v1, jwt, s.deps.AttachmentSvc, s.deps.StudentSvc, s.deps.UserSvc, s.deps.Validate)
	registerLogbookAPI(v1, jwt, s.deps.LogbookSvc, s.deps.AttachmentSvc, s.deps.StudentSvc, s.deps.DepartmentSvc, s.deps.UserSvc, s.deps.Validate)
	registerEvaluationAPI(v1, jwt, s.deps.EvaluationSvc, s.deps.AttachmentSvc, s.deps.StudentSvc, s.deps.UserSvc, s.deps.Validate)
	registerDocumentAPI(v1, jwt, s.deps.DocumentSvc, s.deps.UserSvc, s.deps.Validate)
	registerNotificationAPI(v1, jwt, s.deps.NotificationSvc, s.deps.UserSvc)
	registerMessageAPI(v1, jwt, s.deps.MessagingSvc, s.deps.UserSvc, s.deps.Validate)
	registerAnnouncementAPI(v1, jwt, s.deps.AnnouncementSvc, s.deps.UserSvc, s.deps.Validate)
	registerDashboardAPI(v1, jwt, s.deps.AttachmentSvc, s.deps.StudentSvc, s.deps.DepartmentSvc, s.deps.LogbookSvc,
		s.deps.OrganizationSvc, s.deps.AuditSvc, s.deps.UserSvc)
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Conf.Server.Addr)
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown is passed to the error handler so an unrecoverable error
// can trigger a graceful stop.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Tarajali API!")
}
