package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (request_id, file_name, file_url, file_type, storage_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, uploaded_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		doc.RequestID, doc.FileName, doc.FileURL, doc.FileType, doc.StorageKey).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// Latest returns the most recently uploaded document of a request.
func (r *PostgresRepository) Latest(ctx context.Context, requestID int64) (*models.Document, error) {
	query :=
		`SELECT id, request_id, file_name, file_url, file_type, storage_key, uploaded_at
		 FROM documents
		 WHERE request_id = $1
		 ORDER BY uploaded_at DESC, id DESC
		 LIMIT 1`

	var d models.Document
	err := r.db.QueryRowContext(ctx, query, requestID).
		Scan(&d.ID, &d.RequestID, &d.FileName, &d.FileURL, &d.FileType, &d.StorageKey, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) ListByRequest(ctx context.Context, requestID int64) ([]models.Document, error) {
	query :=
		`SELECT id, request_id, file_name, file_url, file_type, storage_key, uploaded_at
		 FROM documents
		 WHERE request_id = $1
		 ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.RequestID, &d.FileName, &d.FileURL, &d.FileType, &d.StorageKey, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
