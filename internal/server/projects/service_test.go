package projects

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
	"github.com/dmitrijs2005/lorekeeper/internal/dbx"
	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
)

type fakeProjectRepo struct {
	mu    sync.Mutex
	items map[string]models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{items: map[string]models.Project{}}
}

func (f *fakeProjectRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Create(_ context.Context, project *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project.UpdatedAt = time.Now()
	f.items[project.ID] = *project
	out := *project
	return &out, nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func newTestProjectService() (*Service, *fakeProjectRepo) {
	repo := newFakeProjectRepo()
	s := NewService(nil)
	s.repo = func(dbx.DBTX) Repository { return repo }
	return s, repo
}

func TestCreate_AssignsIDAndTrims(t *testing.T) {
	s, _ := newTestProjectService()

	p, err := s.Create(context.Background(), "owner-1", "  The Shattered Vale  ", " fantasy ")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "The Shattered Vale", p.Name)
	require.Equal(t, "fantasy", p.Genre)
	require.Equal(t, "owner-1", p.OwnerID)
}

func TestCreate_EmptyName(t *testing.T) {
	s, _ := newTestProjectService()

	_, err := s.Create(context.Background(), "owner-1", "   ", "")
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestList_OwnerScoped(t *testing.T) {
	s, _ := newTestProjectService()

	_, err := s.Create(context.Background(), "owner-1", "Mine", "")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "owner-2", "Theirs", "")
	require.NoError(t, err)

	items, err := s.List(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Mine", items[0].Name)
}

func TestDelete_OtherOwnersRowInvisible(t *testing.T) {
	s, _ := newTestProjectService()

	p, err := s.Create(context.Background(), "owner-1", "Mine", "")
	require.NoError(t, err)

	require.ErrorIs(t, s.Delete(context.Background(), "owner-2", p.ID), common.ErrNotFound)
	require.NoError(t, s.Delete(context.Background(), "owner-1", p.ID))
}
