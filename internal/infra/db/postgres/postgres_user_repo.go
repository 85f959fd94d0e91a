package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ repository.AuthorizedUserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Insert(ctx context.Context, tx repository.Tx, u *model.AuthorizedUser) error {
	const q = `INSERT INTO users (principal_id, display_name, is_owner, authorized_at) VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, u.PrincipalID, u.DisplayName, u.IsOwner, u.AuthorizedAt)
	return err
}

func (r *userRepo) Delete(ctx context.Context, tx repository.Tx, principalID string) (bool, error) {
	// owner rows are never deleted through the registry
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM users WHERE principal_id=$1 AND NOT is_owner;`, principalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AuthorizedUser, error) {
	const q = `SELECT principal_id, display_name, is_owner, authorized_at FROM users ORDER BY authorized_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AuthorizedUser
	for rows.Next() {
		u := new(model.AuthorizedUser)
		if err := rows.Scan(&u.PrincipalID, &u.DisplayName, &u.IsOwner, &u.AuthorizedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
