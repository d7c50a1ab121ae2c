package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/users"
)

var (
	_ users.Repository     = (*UsersRepository)(nil)
	_ requests.Repository  = (*RequestsRepository)(nil)
	_ documents.Repository = (*DocumentsRepository)(nil)
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u, err := s.Users().Create(ctx, &models.User{Name: "Ana", Email: "ana@x", Role: models.RoleUser})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = s.Users().Create(ctx, &models.User{Name: "Ana2", Email: "ana@x"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := s.Users().GetByEmail(ctx, "ana@x")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.Users().SetRole(ctx, u.ID, models.RoleAdmin))
	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	assert.ErrorIs(t, s.Users().SetRole(ctx, 999, models.RoleAdmin), common.ErrorNotFound)
	_, err = s.Users().GetByEmail(ctx, "ghost@x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRequests(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	a, _ := s.Users().Create(ctx, &models.User{Name: "Ana", Email: "a@x"})
	b, _ := s.Users().Create(ctx, &models.User{Name: "Beto", Email: "b@x"})

	_, err := s.Requests().Create(ctx, &models.Request{UserID: 999})
	assert.ErrorIs(t, err, common.ErrorNotFound, "owner must exist")

	r1, err := s.Requests().Create(ctx, &models.Request{UserID: a.ID, Status: models.StatusPending, Details: models.Details{Nombre: "Ana"}})
	require.NoError(t, err)
	r2, _ := s.Requests().Create(ctx, &models.Request{UserID: b.ID, Status: models.StatusPending})
	r3, _ := s.Requests().Create(ctx, &models.Request{UserID: a.ID, Status: models.StatusPending})
	assert.True(t, r3.CreatedAt.After(r1.CreatedAt), "timestamps increase with a frozen clock")

	mine, err := s.Requests().ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, r3.ID, mine[0].ID)
	assert.Nil(t, mine[0].Details)

	all, err := s.Requests().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, r2.ID, all[1].ID)
	assert.Equal(t, "b@x", *all[1].UserEmail)

	owned, err := s.Requests().GetWithOwner(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", owned.UserName)
	assert.Equal(t, "Ana", owned.Details.Nombre)

	note := "ok"
	upd, err := s.Requests().UpdateStatus(ctx, r1.ID, models.StatusIssued, &note)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, upd.Status)
	assert.True(t, upd.UpdatedAt.After(r1.UpdatedAt))
	note = "mutated"
	got, _ := s.Requests().GetByID(ctx, r1.ID)
	assert.Equal(t, "ok", *got.StatusNote, "note is copied")

	_, err = s.Requests().UpdateStatus(ctx, 999, models.StatusIssued, nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, _ := s.Users().Create(ctx, &models.User{Email: "a@x"})
	req, _ := s.Requests().Create(ctx, &models.Request{UserID: a.ID})

	_, err := s.Documents().Latest(ctx, req.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Documents().Create(ctx, &models.Document{RequestID: 999})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	d1, err := s.Documents().Create(ctx, &models.Document{RequestID: req.ID, FileName: "a.pdf"})
	require.NoError(t, err)
	d2, err := s.Documents().Create(ctx, &models.Document{RequestID: req.ID, FileName: "b.jpg"})
	require.NoError(t, err)

	latest, err := s.Documents().Latest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, d2.ID, latest.ID)

	list, err := s.Documents().ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, d1.ID, list[1].ID)
}
