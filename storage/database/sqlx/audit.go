package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/audit"
)

type auditRow struct {
	ID         string      `db:"id"`
	ActorID    null.String `db:"actor_id"`
	Action     string      `db:"action"`
	ObjectType string      `db:"object_type"`
	ObjectID   string      `db:"object_id"`
	Detail     null.JSON   `db:"detail"`
	CreatedAt  null.Time   `db:"created_at"`
}

func (r auditRow) log() (audit.Log, error) {
	entry := audit.Log{
		ID:         r.ID,
		ActorID:    r.ActorID.String,
		Action:     r.Action,
		ObjectType: r.ObjectType,
		ObjectID:   r.ObjectID,
		CreatedAt:  r.CreatedAt.Time,
	}
	if r.Detail.Valid {
		if err := json.Unmarshal(r.Detail.JSON, &entry.Detail); err != nil {
			return audit.Log{}, errors.Wrap(err, "decoding audit detail")
		}
	}
	return entry, nil
}

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateLog(ctx context.Context, entry audit.Log, exec ...core.DBExecutor) (audit.Log, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	detail := null.JSON{}
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return audit.Log{}, errors.Wrap(err, "encoding audit detail")
		}
		detail = null.JSONFrom(raw)
	}
	query := `INSERT INTO audit_log (id, actor_id, action, object_type, object_id, detail, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		entry.ID, null.NewString(entry.ActorID, entry.ActorID != ""), entry.Action,
		entry.ObjectType, entry.ObjectID, detail, entry.CreatedAt.UTC()); err != nil {
		return audit.Log{}, errors.Wrap(err, "inserting audit log")
	}
	return entry, nil
}

func (repo auditRepository) QueryLogs(ctx context.Context, objectType, objectID string, exec ...core.DBExecutor) ([]audit.Log, error) {
	var rows []auditRow
	query := `SELECT * FROM audit_log WHERE object_type = $1 AND object_id = $2 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, objectType, objectID); err != nil {
		return nil, errors.Wrap(err, "querying audit logs")
	}
	logs := make([]audit.Log, 0, len(rows))
	for _, row := range rows {
		entry, err := row.log()
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
