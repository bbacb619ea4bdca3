package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecosopis/storefront/internal/domain"
)

const userColumns = `id, username, password, role, skin_type, address`

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.SkinType, &u.Address); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password, role, skin_type, address) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Username,
		u.PasswordHash,
		u.Role,
		u.SkinType,
		u.Address,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET skin_type = COALESCE($2, skin_type),
		     address = COALESCE($3, address)
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
		update.SkinType,
		nullableAddress(update.Address),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

func nullableAddress(a *domain.Address) any {
	if a == nil {
		return nil
	}
	return *a
}
