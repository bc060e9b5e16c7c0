package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/logbook"
)

type logbookRepository struct {
	db *DB
}

var _ logbook.Repository = (*logbookRepository)(nil)

func NewLogbookRepository(db *DB) *logbookRepository {
	return &logbookRepository{db: db}
}

func (repo *logbookRepository) CreateEntry(ctx context.Context, entry logbook.Entry, exec ...core.DBExecutor) (logbook.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.logEntries[entry.ID] = &entry
	return entry, nil
}

func (repo *logbookRepository) QueryEntries(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]logbook.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]logbook.Entry, 0)
	for _, entry := range repo.db.logEntries {
		if entry.ApplicationID == applicationID {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].WeekNumber < entries[j].WeekNumber })
	return entries, nil
}

func (repo *logbookRepository) GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (logbook.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if entry, ok := repo.db.logEntries[id]; ok {
		return *entry, nil
	}
	return logbook.Entry{}, logbook.ErrNotFound
}

func (repo *logbookRepository) GetEntryByWeek(ctx context.Context, applicationID string, weekNumber int, exec ...core.DBExecutor) (logbook.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, entry := range repo.db.logEntries {
		if entry.ApplicationID == applicationID && entry.WeekNumber == weekNumber {
			return *entry, nil
		}
	}
	return logbook.Entry{}, logbook.ErrNotFound
}

func (repo *logbookRepository) UpdateEntry(ctx context.Context, entry logbook.Entry, exec ...core.DBExecutor) (logbook.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.logEntries[entry.ID]; !ok {
		return logbook.Entry{}, logbook.ErrNotFound
	}
	repo.db.logEntries[entry.ID] = &entry
	return entry, nil
}
