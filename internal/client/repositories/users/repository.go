// Package users persists the cached directory users.
package users

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/client/models"
)

// Repository stores users keyed by email, remembering the order in which
// each email was first stored.
type Repository interface {
	// ReplaceAll swaps the whole collection for users in one transaction.
	ReplaceAll(ctx context.Context, users []models.User) error

	// UpsertAll inserts or updates users by email in one transaction.
	UpsertAll(ctx context.Context, users []models.User) error

	// GetAll returns every user in first-insertion order.
	GetAll(ctx context.Context) ([]models.User, error)

	// GetByEmail returns common.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	Count(ctx context.Context) (int, error)
}
