// Package inmemdb provides map-backed repositories for tests and local
// hacking. No persistence, no SQL, one lock.
package inmemdb

import (
	"sync"

	"github.com/trezcool/tarajali/core/announcement"
	"github.com/trezcool/tarajali/core/attachment"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/document"
	"github.com/trezcool/tarajali/core/evaluation"
	"github.com/trezcool/tarajali/core/logbook"
	"github.com/trezcool/tarajali/core/messaging"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/organization"
	"github.com/trezcool/tarajali/core/student"
	"github.com/trezcool/tarajali/core/user"

	"github.com/trezcool/tarajali/core/department"
)

type DB struct {
	mu sync.RWMutex

	users         map[string]*user.User
	departments   map[string]*department.Department
	supervisors   map[string]*department.Supervisor
	students      map[string]*student.Student
	organizations map[string]*organization.Organization
	periods       map[string]*attachment.Period
	applications  map[string]*attachment.Application
	logEntries    map[string]*logbook.Entry
	evaluations   map[string]*evaluation.Evaluation
	documents     map[string]*document.Document
	notifications map[string]*notification.Notification
	messages      map[string]*messaging.Message
	announcements map[string]*announcement.Announcement
	auditLogs     map[string]*audit.Log
}

func New() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		departments:   make(map[string]*department.Department),
		supervisors:   make(map[string]*department.Supervisor),
		students:      make(map[string]*student.Student),
		organizations: make(map[string]*organization.Organization),
		periods:       make(map[string]*attachment.Period),
		applications:  make(map[string]*attachment.Application),
		logEntries:    make(map[string]*logbook.Entry),
		evaluations:   make(map[string]*evaluation.Evaluation),
		documents:     make(map[string]*document.Document),
		notifications: make(map[string]*notification.Notification),
		messages:      make(map[string]*messaging.Message),
		announcements: make(map[string]*announcement.Announcement),
		auditLogs:     make(map[string]*audit.Log),
	}
}

// Reset empties every table. Tests call this between cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.departments = make(map[string]*department.Department)
	db.supervisors = make(map[string]*department.Supervisor)
	db.students = make(map[string]*student.Student)
	db.organizations = make(map[string]*organization.Organization)
	db.periods = make(map[string]*attachment.Period)
	db.applications = make(map[string]*attachment.Application)
	db.logEntries = make(map[string]*logbook.Entry)
	db.evaluations = make(map[string]*evaluation.Evaluation)
	db.documents = make(map[string]*document.Document)
	db.notifications = make(map[string]*notification.Notification)
	db.messages = make(map[string]*messaging.Message)
	db.announcements = make(map[string]*announcement.Announcement)
	db.auditLogs = make(map[string]*audit.Log)
}
