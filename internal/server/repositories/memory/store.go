// Package memory provides process-local implementations of the repository
// interfaces. Data lives only as long as the Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

// Store holds users, requests and documents behind a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	requests map[int64]models.Request
	docs     []models.Document
	seq      int64
	last     time.Time
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    map[int64]models.User{},
		requests: map[int64]models.Request{},
		now:      time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// tick returns a timestamp strictly after the previous one.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) Users() *UsersRepository         { return &UsersRepository{s} }
func (s *Store) Requests() *RequestsRepository   { return &RequestsRepository{s} }
func (s *Store) Documents() *DocumentsRepository { return &DocumentsRepository{s} }

type UsersRepository struct{ s *Store }

func (r *UsersRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.tick()
	r.s.users[c.ID] = c
	return &c, nil
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UsersRepository) SetRole(ctx context.Context, id int64, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

type RequestsRepository struct{ s *Store }

func (r *RequestsRepository) Create(ctx context.Context, req *models.Request) (*models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[req.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *req
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.requests[c.ID] = c
	return &c, nil
}

func (r *RequestsRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &req, nil
}

func (r *RequestsRepository) GetWithOwner(ctx context.Context, id int64) (*models.RequestWithOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[req.UserID]
	return &models.RequestWithOwner{Request: req, UserName: u.Name, UserEmail: u.Email}, nil
}

// newestFirst returns matching requests ordered by created_at DESC.
func (r *RequestsRepository) newestFirst(match func(models.Request) bool) []models.Request {
	var out []models.Request
	for _, req := range r.s.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func view(req models.Request) models.RequestView {
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

func (r *RequestsRepository) ListAll(ctx context.Context) ([]models.RequestView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.RequestView{}
	for _, req := range r.newestFirst(func(models.Request) bool { return true }) {
		v := view(req)
		d := req.Details
		u := r.s.users[req.UserID]
		v.Details, v.UserName, v.UserEmail = &d, &u.Name, &u.Email
		result = append(result, v)
	}
	return result, nil
}

func (r *RequestsRepository) ListByUser(ctx context.Context, userID int64) ([]models.RequestView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.RequestView{}
	for _, req := range r.newestFirst(func(q models.Request) bool { return q.UserID == userID }) {
		result = append(result, view(req))
	}
	return result, nil
}

func (r *RequestsRepository) UpdateStatus(ctx context.Context, id int64, status models.Status, note *string) (*models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	req.Status = status
	req.StatusNote = nil
	if note != nil {
		n := *note
		req.StatusNote = &n
	}
	req.UpdatedAt = r.s.tick()
	r.s.requests[id] = req
	return &req, nil
}

type DocumentsRepository struct{ s *Store }

func (r *DocumentsRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[d.RequestID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *d
	c.ID = r.s.nextID()
	c.UploadedAt = r.s.tick()
	r.s.docs = append(r.s.docs, c)
	return &c, nil
}

func (r *DocumentsRepository) Latest(ctx context.Context, requestID int64) (*models.Document, error) {
	docs, _ := r.ListByRequest(ctx, requestID)
	if len(docs) == 0 {
		return nil, common.ErrorNotFound
	}
	return &docs[0], nil
}

// ListByRequest returns the request's documents, newest first.
func (r *DocumentsRepository) ListByRequest(ctx context.Context, requestID int64) ([]models.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.Document{}
	for i := len(r.s.docs) - 1; i >= 0; i-- {
		if r.s.docs[i].RequestID == requestID {
			result = append(result, r.s.docs[i])
		}
	}
	return result, nil
}
