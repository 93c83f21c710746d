package projects

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
	"github.com/dmitrijs2005/lorekeeper/internal/dbx"
	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
)

var ErrNameRequired = errors.New("project name is required")

// Service wraps the repository with input checks and ID assignment.
type Service struct {
	db   *sql.DB
	repo func(dbx.DBTX) Repository
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:   db,
		repo: func(tx dbx.DBTX) Repository { return NewPostgresRepository(tx) },
	}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.repo(s.db).ListByOwner(ctx, ownerID)
}

func (s *Service) Create(ctx context.Context, ownerID, name, genre string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	p := &models.Project{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Genre:   strings.TrimSpace(genre),
	}
	return s.repo(s.db).Create(ctx, p)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo(s.db).Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}
	return nil
}
