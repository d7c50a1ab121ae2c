package requests

import (
	"context"

	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, req *models.Request) (*models.Request, error)
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	GetWithOwner(ctx context.Context, id int64) (*models.RequestWithOwner, error)
	ListAll(ctx context.Context) ([]models.RequestView, error)
	ListByUser(ctx context.Context, userID int64) ([]models.RequestView, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status, note *string) (*models.Request, error)
}
