package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/document"
)

type documentRow struct {
	ID            string      `db:"id"`
	OwnerID       string      `db:"owner_id"`
	ApplicationID null.String `db:"application_id"`
	Kind          string      `db:"kind"`
	Title         string      `db:"title"`
	FileName      string      `db:"file_name"`
	Description   null.String `db:"description"`
	FilePath      null.String `db:"file_path"`
	ContentType   null.String `db:"content_type"`
	SizeBytes     null.Int64  `db:"size_bytes"`
	UploadedAt    null.Time   `db:"uploaded_at"`
}

func (r documentRow) document() document.Document {
	return document.Document{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		ApplicationID: r.ApplicationID.String,
		Kind:          r.Kind,
		Title:         r.Title,
		Description:   r.Description.String,
		FileName:      r.FileName,
		FilePath:      r.FilePath.String,
		ContentType:   r.ContentType.String,
		SizeBytes:     r.SizeBytes.Int64,
		UploadedAt:    r.UploadedAt.Time,
	}
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo documentRepository) CreateDocument(ctx context.Context, doc document.Document, exec ...core.DBExecutor) (document.Document, error) {
	query := `
		INSERT INTO document (id, owner_id, application_id, kind, title, description, file_name, file_path, content_type, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		doc.ID, doc.OwnerID, null.NewString(doc.ApplicationID, doc.ApplicationID != ""),
		doc.Kind, doc.Title, null.NewString(doc.Description, doc.Description != ""),
		doc.FileName, doc.FilePath, doc.ContentType, doc.SizeBytes, doc.UploadedAt.UTC()); err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo documentRepository) QueryDocuments(ctx context.Context, ownerID, applicationID string, exec ...core.DBExecutor) ([]document.Document, error) {
	query := `SELECT * FROM document`
	var conds []string
	var args []interface{}
	if ownerID != "" {
		args = append(args, ownerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if applicationID != "" {
		args = append(args, applicationID)
		conds = append(conds, fmt.Sprintf("application_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY uploaded_at DESC"

	var rows []documentRow
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	docs := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document())
	}
	return docs, nil
}

func (repo documentRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (document.Document, error) {
	var row documentRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM document WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, errors.Wrap(err, "getting document")
	}
	return row.document(), nil
}

func (repo documentRepository) DeleteDocument(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := ext(repo.db, exec).ExecContext(ctx, `DELETE FROM document WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrNotFound
	}
	return nil
}
