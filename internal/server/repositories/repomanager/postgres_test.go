package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/docutrack/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/users"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager()

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if r := m.Requests(db); r == nil {
		t.Fatal("Requests() nil")
	}
	if d := m.Documents(db); d == nil {
		t.Fatal("Documents() nil")
	}

	var _ users.Repository = m.Users(db)
	var _ requests.Repository = m.Requests(db)
	var _ documents.Repository = m.Documents(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	defer goose.SetBaseFS(nil)

	m := &PostgresRepositoryManager{}
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		_, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
		return err
	}
	defer func() { gooseUpContext = orig }()

	db, _ := newDB(t)
	defer db.Close()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("embedded migrations not collectable: %v", err)
	}
}

func TestOpen(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return db, nil
	}
	mock.ExpectPing()

	got, err := Open(context.Background(), "postgres://x")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got != db {
		t.Fatal("Open returned a different handle")
	}
}

func TestOpen_Errors(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	if _, err := Open(context.Background(), "x"); err == nil {
		t.Fatal("expected open error")
	}

	db, mock := newDB(t)
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	if _, err := Open(context.Background(), "x"); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestInMemoryRepositoryManager(t *testing.T) {
	var m RepositoryManager = NewInMemoryRepositoryManager(nil)

	if err := m.RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if m.Users(nil) == nil || m.Requests(nil) == nil || m.Documents(nil) == nil {
		t.Fatal("nil repository")
	}
}
