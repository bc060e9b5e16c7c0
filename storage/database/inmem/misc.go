package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/announcement"
	"github.com/trezcool/tarajali/core/audit"
	"github.com/trezcool/tarajali/core/document"
	"github.com/trezcool/tarajali/core/messaging"
	"github.com/trezcool/tarajali/core/notification"
)

// ------------------------------------------------------------------------------------------------
// Documents

type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document, exec ...core.DBExecutor) (document.Document, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, ownerID, applicationID string, exec ...core.DBExecutor) ([]document.Document, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	docs := make([]document.Document, 0)
	for _, doc := range repo.db.documents {
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}
		if applicationID != "" && doc.ApplicationID != applicationID {
			continue
		}
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.After(docs[j].UploadedAt) })
	return docs, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (document.Document, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if doc, ok := repo.db.documents[id]; ok {
		return *doc, nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) DeleteDocument(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.documents[id]; !ok {
		return document.ErrNotFound
	}
	delete(repo.db.documents, id)
	return nil
}

// ------------------------------------------------------------------------------------------------
// Notifications

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if notif.ID == "" {
		notif.ID = uuid.New().String()
	}
	repo.db.notifications[notif.ID] = &notif
	return notif, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, notif := range repo.db.notifications {
		if notif.UserID != userID {
			continue
		}
		if unreadOnly && notif.IsRead {
			continue
		}
		notifs = append(notifs, *notif)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if notif, ok := repo.db.notifications[id]; ok {
		return *notif, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, notif notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.notifications[notif.ID]; !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	repo.db.notifications[notif.ID] = &notif
	return notif, nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for _, notif := range repo.db.notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			n++
		}
	}
	return n, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, notif := range repo.db.notifications {
		if notif.UserID == userID && !notif.IsRead {
			count++
		}
	}
	return count, nil
}

// ------------------------------------------------------------------------------------------------
// Messages

type messageRepository struct {
	db *DB
}

var _ messaging.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) fill(msg messaging.Message) messaging.Message {
	if usr, ok := repo.db.users[msg.SenderID]; ok {
		msg.SenderName = usr.Name
	}
	if usr, ok := repo.db.users[msg.RecipientID]; ok {
		msg.RecipientName = usr.Name
	}
	return msg
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.messages[msg.ID] = &msg
	return repo.fill(msg), nil
}

func (repo *messageRepository) queryMessages(match func(*messaging.Message) bool, newestFirst bool) []messaging.Message {
	msgs := make([]messaging.Message, 0)
	for _, msg := range repo.db.messages {
		if match(msg) {
			msgs = append(msgs, repo.fill(*msg))
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if newestFirst {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

func (repo *messageRepository) QueryInbox(ctx context.Context, userID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryMessages(func(msg *messaging.Message) bool { return msg.RecipientID == userID }, true), nil
}

func (repo *messageRepository) QuerySent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryMessages(func(msg *messaging.Message) bool { return msg.SenderID == userID }, true), nil
}

func (repo *messageRepository) QueryThread(ctx context.Context, rootID string, exec ...core.DBExecutor) ([]messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryMessages(func(msg *messaging.Message) bool {
		return msg.ID == rootID || msg.ParentID == rootID
	}, false), nil
}

func (repo *messageRepository) GetMessage(ctx context.Context, id string, exec ...core.DBExecutor) (messaging.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if msg, ok := repo.db.messages[id]; ok {
		return repo.fill(*msg), nil
	}
	return messaging.Message{}, messaging.ErrNotFound
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.messages[msg.ID]; !ok {
		return messaging.Message{}, messaging.ErrNotFound
	}
	repo.db.messages[msg.ID] = &msg
	return repo.fill(msg), nil
}

func (repo *messageRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, msg := range repo.db.messages {
		if msg.RecipientID == userID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

// ------------------------------------------------------------------------------------------------
// Announcements

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	anns := make([]announcement.Announcement, 0, len(repo.db.announcements))
	for _, ann := range repo.db.announcements {
		anns = append(anns, *ann)
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].PublishAt.After(anns[j].PublishAt) })
	return anns, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) (announcement.Announcement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ann, ok := repo.db.announcements[id]; ok {
		return *ann, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.announcements[ann.ID]; !ok {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.announcements[id]; !ok {
		return announcement.ErrNotFound
	}
	delete(repo.db.announcements, id)
	return nil
}

// ------------------------------------------------------------------------------------------------
// Audit logs

type auditRepository struct {
	db *DB
}

var _ audit.Repository = (*auditRepository)(nil)

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) CreateLog(ctx context.Context, entry audit.Log, exec ...core.DBExecutor) (audit.Log, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	repo.db.auditLogs[entry.ID] = &entry
	return entry, nil
}

func (repo *auditRepository) QueryLogs(ctx context.Context, objectType, objectID string, exec ...core.DBExecutor) ([]audit.Log, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	logs := make([]audit.Log, 0)
	for _, entry := range repo.db.auditLogs {
		if entry.ObjectType == objectType && entry.ObjectID == objectID {
			logs = append(logs, *entry)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs, nil
}
