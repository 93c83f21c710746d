// Package sessions persists the serialized session in the client's local
// key-value state table.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
)

// Repository stores at most one session per local database.
type Repository interface {
	// Save writes (or replaces) the persisted session.
	Save(ctx context.Context, s *models.Session) error
	// Load returns the persisted session, or (nil, nil) if none is stored.
	Load(ctx context.Context) (*models.Session, error)
	// Delete removes any persisted session. Deleting when nothing is
	// stored is not an error.
	Delete(ctx context.Context) error
}
