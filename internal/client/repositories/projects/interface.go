// Package projects caches the user's project list in the local database so
// the CLI can show it while the backend is unreachable.
package projects

import (
	"context"

	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Project, error)
	// ReplaceAll swaps the cached list for the given one in a single
	// transaction.
	ReplaceAll(ctx context.Context, items []models.Project) error
	Clear(ctx context.Context) error
}
