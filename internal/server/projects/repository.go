// Package projects stores the worldbuilding projects that belong to an
// account.
package projects

import (
	"context"

	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
)

// Repository access is always owner-scoped; a caller can never see or touch
// another account's rows.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
}
