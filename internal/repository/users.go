package repository

import (
	"context"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, full_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version)
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	user := &domain.User{ID: id}

	query := `
		SELECT username, password_hash, full_name, email, is_active, created_at, version
		FROM users WHERE id = $1
	`
	dst := []any{&user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	user := &domain.User{Username: username}

	query := `
		SELECT id, password_hash, full_name, email, is_active, created_at, version
		FROM users WHERE username = $1
	`
	dst := []any{&user.ID, &user.PasswordHash, &user.FullName, &user.Email, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser writes the user back under its optimistic version;
// sql.ErrNoRows means a concurrent update won and the caller should retry.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	args := []any{user.PasswordHash, user.FullName, user.Email, user.IsActive, user.ID, user.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.Version)
}

func (r *Repository) CheckEmailIfExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	isExists := false

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}
	return isExists, nil
}
