// Package users holds account storage and the sign-up / sign-in business
// logic behind the auth endpoints.
package users

import (
	"context"

	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	SetPasswordHash(ctx context.Context, id string, hash []byte) error
}
