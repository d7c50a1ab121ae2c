package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/users"
)

// --- in-memory repositories shared by the service tests ---

type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	requests map[int64]*models.Request
	docs     []*models.Document
	nextID   int64
	clock    time.Time

	failWith  error
	docCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*models.User{},
		requests: map[int64]*models.Request{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.id()
	c.CreatedAt = r.tick()
	r.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) SetRole(ctx context.Context, id int64, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Role = role
	return nil
}

type memRequests struct{ *memStore }

func (r memRequests) Create(ctx context.Context, req *models.Request) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	c := *req
	c.ID = r.id()
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	r.requests[c.ID] = &c
	out := c
	return &out, nil
}

func (r memRequests) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	req, ok := r.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *req
	return &c, nil
}

func (r memRequests) GetWithOwner(ctx context.Context, id int64) (*models.RequestWithOwner, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[req.UserID]
	out := &models.RequestWithOwner{Request: *req}
	if u != nil {
		out.UserName, out.UserEmail = u.Name, u.Email
	}
	return out, nil
}

func (r memRequests) sorted(filter func(*models.Request) bool) []*models.Request {
	var out []*models.Request
	for _, req := range r.requests {
		if filter(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memRequests) ListAll(ctx context.Context) ([]models.RequestView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	views := []models.RequestView{}
	for _, req := range r.sorted(func(*models.Request) bool { return true }) {
		d := req.Details
		u := r.users[req.UserID]
		v := models.RequestView{ID: req.ID, UserID: req.UserID, Status: req.Status, StatusLabel: req.Status.Label(), Details: &d}
		if u != nil {
			v.UserName, v.UserEmail = &u.Name, &u.Email
		}
		views = append(views, v)
	}
	return views, nil
}

func (r memRequests) ListByUser(ctx context.Context, userID int64) ([]models.RequestView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	views := []models.RequestView{}
	for _, req := range r.sorted(func(q *models.Request) bool { return q.UserID == userID }) {
		views = append(views, models.RequestView{ID: req.ID, UserID: req.UserID, Status: req.Status, StatusLabel: req.Status.Label()})
	}
	return views, nil
}

func (r memRequests) UpdateStatus(ctx context.Context, id int64, status models.Status, note *string) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	req, ok := r.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	req.Status = status
	req.StatusNote = note
	req.UpdatedAt = r.tick()
	c := *req
	return &c, nil
}

type memDocuments struct{ *memStore }

func (r memDocuments) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.docCreate != nil {
		return nil, r.docCreate
	}
	c := *d
	c.ID = r.id()
	c.UploadedAt = r.tick()
	r.docs = append(r.docs, &c)
	out := c
	return &out, nil
}

func (r memDocuments) Latest(ctx context.Context, requestID int64) (*models.Document, error) {
	docs, err := r.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.ErrorNotFound
	}
	return &docs[0], nil
}

func (r memDocuments) ListByRequest(ctx context.Context, requestID int64) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := []models.Document{}
	for i := len(r.docs) - 1; i >= 0; i-- {
		if r.docs[i].RequestID == requestID {
			out = append(out, *r.docs[i])
		}
	}
	return out, nil
}

type fakeRepoManager struct{ store *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return memUsers{m.store} }
func (m *fakeRepoManager) Requests(db dbx.DBTX) requests.Repository   { return memRequests{m.store} }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository { return memDocuments{m.store} }

// --- object storage ---

type fakeFileStore struct {
	puts       map[string][]byte
	deleted    []string
	putErr     error
	deleteErr  error
	presignErr error
}

func newFakeFileStore() *fakeFileStore { return &fakeFileStore{puts: map[string][]byte{}} }

func (f *fakeFileStore) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.puts[key] = b
	return "http://files.test/" + key, nil
}

func (f *fakeFileStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.puts, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeFileStore) PresignGet(ctx context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "http://files.test/" + key + "?signed=1", nil
}

// --- limiter ---

type fakeLimiter struct {
	allow    bool
	err      error
	resets   []string
	attempts []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int) (bool, time.Duration, error) {
	l.attempts = append(l.attempts, key)
	if l.err != nil {
		return false, 0, l.err
	}
	return l.allow, time.Minute, nil
}

func (l *fakeLimiter) Reset(ctx context.Context, key string) error {
	l.resets = append(l.resets, key)
	return nil
}

var errDBDown = errors.New("db down")
