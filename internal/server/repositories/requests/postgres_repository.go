package requests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

const requestColumns = `id, user_id, request_type, status, status_note, details, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner, extra ...any) (*models.Request, error) {
	var (
		req     models.Request
		note    sql.NullString
		details []byte
	)
	dest := append([]any{&req.ID, &req.UserID, &req.RequestType, &req.Status, &note, &details, &req.CreatedAt, &req.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if note.Valid {
		req.StatusNote = &note.String
	}
	req.Details = models.ParseDetails(details)
	return &req, nil
}

// Create stores req with its details normalized to a JSON object.
func (r *PostgresRepository) Create(ctx context.Context, req *models.Request) (*models.Request, error) {
	details, err := json.Marshal(req.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}

	query :=
		`INSERT INTO requests (user_id, request_type, status, details)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + requestColumns

	created, err := scanRequest(r.db.QueryRowContext(ctx, query, req.UserID, req.RequestType, req.Status, string(details)))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// GetByID returns the request with id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

// GetWithOwner joins the request with its owner's name and email.
func (r *PostgresRepository) GetWithOwner(ctx context.Context, id int64) (*models.RequestWithOwner, error) {
	query :=
		`SELECT r.id, r.user_id, r.request_type, r.status, r.status_note, r.details, r.created_at, r.updated_at,
		        u.name, u.email
		 FROM requests r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.id = $1`

	var out models.RequestWithOwner
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id), &out.UserName, &out.UserEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	out.Request = *req
	return &out, nil
}

// ListAll returns every request with its owner's name and email, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.RequestView, error) {
	query :=
		`SELECT r.id, r.user_id, r.request_type, r.status, r.status_note, r.details, r.created_at, r.updated_at,
		        u.name, u.email
		 FROM requests r
		 JOIN users u ON u.id = r.user_id
		 ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.RequestView{}
	for rows.Next() {
		var name, email string
		req, err := scanRequest(rows, &name, &email)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		v := toView(req)
		v.Details = &req.Details
		v.UserName = &name
		v.UserEmail = &email
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// ListByUser returns the user's own requests, newest first, without
// details or owner fields.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.RequestView, error) {
	query :=
		`SELECT id, user_id, request_type, status, status_note, created_at, updated_at
		 FROM requests
		 WHERE user_id = $1
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.RequestView{}
	for rows.Next() {
		var (
			v    models.RequestView
			note sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.RequestType, &v.Status, &note, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if note.Valid {
			v.StatusNote = &note.String
		}
		v.StatusLabel = v.Status.Label()
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateStatus overwrites status and note and bumps updated_at. A nil note
// clears it.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.Status, note *string) (*models.Request, error) {
	query :=
		`UPDATE requests
		 SET status = $1, status_note = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING ` + requestColumns

	var noteArg sql.NullString
	if note != nil {
		noteArg = sql.NullString{String: *note, Valid: true}
	}

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, status, noteArg, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func toView(req *models.Request) models.RequestView {
	return models.RequestView{
		ID:          req.ID,
		UserID:      req.UserID,
		RequestType: req.RequestType,
		Status:      req.Status,
		StatusLabel: req.Status.Label(),
		StatusNote:  req.StatusNote,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}
