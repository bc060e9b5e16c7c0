package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/tarajali/apps/api/echo"
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
	logsvc "github.com/trezcool/tarajali/services/logger"
	"github.com/trezcool/tarajali/storage/database"
	sqlxrepos "github.com/trezcool/tarajali/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	sdb := sqlx.NewDb(db, "postgres")

	// set up repositories
	usrRepo := sqlxrepos.NewUserRepository(sdb)
	stdRepo := sqlxrepos.NewStudentRepository(sdb)
	deptRepo := sqlxrepos.NewDepartmentRepository(sdb)
	orgRepo := sqlxrepos.NewOrganizationRepository(sdb)
	attRepo := sqlxrepos.NewAttachmentRepository(sdb)
	logRepo := sqlxrepos.NewLogbookRepository(sdb)
	evalRepo := sqlxrepos.NewEvaluationRepository(sdb)
	docRepo := sqlxrepos.NewDocumentRepository(sdb)
	notifRepo := sqlxrepos.NewNotificationRepository(sdb)
	msgRepo := sqlxrepos.NewMessageRepository(sdb)
	annRepo := sqlxrepos.NewAnnouncementRepository(sdb)
	auditRepo := sqlxrepos.NewAuditRepository(sdb)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	notifSvc := notification.NewService(notifRepo, usrSvc, mailSvc, logger)
	auditSvc := audit.NewService(auditRepo)
	stdSvc := student.NewService(stdRepo)
	deptSvc := department.NewService(deptRepo)
	orgSvc := organization.NewService(orgRepo, notifSvc, auditSvc, logger)
	attSvc := attachment.NewService(attRepo, stdSvc, orgSvc, deptSvc, usrSvc, notifSvc, auditSvc, logger)
	logSvc := logbook.NewService(logRepo, attSvc, stdSvc, deptSvc, notifSvc, auditSvc, logger)
	evalSvc := evaluation.NewService(evalRepo, attSvc, stdSvc, deptSvc, usrSvc, notifSvc, auditSvc, logger)
	docSvc := document.NewService(docRepo)
	msgSvc := messaging.NewService(msgRepo, usrSvc, notifSvc, logger)
	annSvc := announcement.NewService(annRepo, auditSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
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
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
