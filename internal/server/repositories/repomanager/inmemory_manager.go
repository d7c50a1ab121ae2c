package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves every repository from one memory.Store
// and ignores the DBTX it is given. Transactions opened by services still
// run against the *sql.DB, but nothing is written through them.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func NewInMemoryRepositoryManager(store *memory.Store) *InMemoryRepositoryManager {
	if store == nil {
		store = memory.NewStore()
	}
	return &InMemoryRepositoryManager{store: store}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.store.Users() }

func (m *InMemoryRepositoryManager) Requests(dbx.DBTX) requests.Repository {
	return m.store.Requests()
}

func (m *InMemoryRepositoryManager) Documents(dbx.DBTX) documents.Repository {
	return m.store.Documents()
}
