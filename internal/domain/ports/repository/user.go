package repository

import (
	"context"

	"discord-sales-bot/internal/domain/model"
)

// AuthorizedUserRepository stores the mutable allowlist. The owner never lives here.
type AuthorizedUserRepository interface {
	Insert(ctx context.Context, tx Tx, u *model.AuthorizedUser) error
	Delete(ctx context.Context, tx Tx, principalID string) (bool, error)
	List(ctx context.Context, tx Tx) ([]*model.AuthorizedUser, error)
}
