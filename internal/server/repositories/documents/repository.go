package documents

import (
	"context"

	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	Latest(ctx context.Context, requestID int64) (*models.Document, error)
	ListByRequest(ctx context.Context, requestID int64) ([]models.Document, error)
}
