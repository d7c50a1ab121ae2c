package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Requests(db dbx.DBTX) requests.Repository
	Documents(db dbx.DBTX) documents.Repository
}
