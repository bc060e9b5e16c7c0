package audit

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
)

var ErrNotFound = errors.New("audit log not found")

// Log is an append-only trail record; rows are never updated or deleted.
type Log struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	ObjectType string                 `json:"object_type"`
	ObjectID   string                 `json:"object_id"`
	Detail     map[string]interface{} `json:"detail"`
	CreatedAt  time.Time              `json:"created_at"` // UTC
}

type (
	Recorder interface {
		Record(ctx context.Context, actorID, action, objectType, objectID string, detail map[string]interface{}) error
	}

	Repository interface {
		CreateLog(ctx context.Context, entry Log, exec ...core.DBExecutor) (Log, error)
		QueryLogs(ctx context.Context, objectType, objectID string, exec ...core.DBExecutor) ([]Log, error)
	}

	Service interface {
		Recorder
		QueryForObject(ctx context.Context, objectType, objectID string) ([]Log, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Record(ctx context.Context, actorID, action, objectType, objectID string, detail map[string]interface{}) error {
	entry := Log{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := svc.repo.CreateLog(ctx, entry)
	return errors.Wrap(err, "recording audit log")
}

func (svc *service) QueryForObject(ctx context.Context, objectType, objectID string) ([]Log, error) {
	return svc.repo.QueryLogs(ctx, objectType, objectID)
}
