package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lorekeeper/internal/client/api"
	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
	"github.com/dmitrijs2005/lorekeeper/internal/client/repositories/projects"
)

// ProjectService lists and edits the user's worldbuilding projects. Reads
// prefer the backend and fall back to the local cache when it is
// unreachable; writes are online-only.
type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, name, genre string) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	ClearCache(ctx context.Context) error
}

type projectService struct {
	client api.Client
	db     *sql.DB
}

func NewProjectService(client api.Client, db *sql.DB) ProjectService {
	return &projectService{client: client, db: db}
}

func (p *projectService) getRepo() projects.Repository {
	return projects.NewSQLiteRepository(p.db)
}

// List fetches the project list and refreshes the local cache. If the
// backend is unreachable the cached copy is returned instead.
func (p *projectService) List(ctx context.Context) ([]models.Project, error) {
	remote, err := p.client.ListProjects(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			return p.getRepo().List(ctx)
		}
		return nil, err
	}

	items := make([]models.Project, 0, len(remote))
	for _, r := range remote {
		items = append(items, models.Project{ID: r.ID, Name: r.Name, Genre: r.Genre, UpdatedAt: r.UpdatedAt})
	}

	if err := p.getRepo().ReplaceAll(ctx, items); err != nil {
		return nil, fmt.Errorf("project cache refresh error: %w", err)
	}
	return items, nil
}

func (p *projectService) Create(ctx context.Context, name, genre string) (*models.Project, error) {
	created, err := p.client.CreateProject(ctx, name, genre)
	if err != nil {
		return nil, err
	}
	return &models.Project{ID: created.ID, Name: created.Name, Genre: created.Genre, UpdatedAt: created.UpdatedAt}, nil
}

func (p *projectService) Delete(ctx context.Context, id string) error {
	return p.client.DeleteProject(ctx, id)
}

// ClearCache wipes the locally cached list, e.g. on sign-out.
func (p *projectService) ClearCache(ctx context.Context) error {
	return p.getRepo().Clear(ctx)
}
