// Package resettokens stores the single-use tokens behind password-reset
// links.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
)

// Repository defines operations for issuing, consuming, and expiring reset
// tokens.
type Repository interface {
	// Create stores a new reset token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Consume atomically looks up and deletes a token. A token can be
	// consumed at most once; absent tokens return a not-found error.
	Consume(ctx context.Context, token string) (*models.ResetToken, error)

	// DeleteForUser revokes all outstanding tokens for a user, e.g. after a
	// successful reset.
	DeleteForUser(ctx context.Context, userID string) error
}
