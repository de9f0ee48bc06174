package postgres

import (
	"context"
	"database/sql"
	"time"

	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/visibility"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u identity.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, team_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.TeamID, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (identity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (identity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UsersRepo) getBy(ctx context.Context, col, val string) (identity.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, team_id, created_at, updated_at
		FROM users
		WHERE `+col+` = $1
	`, val)

	var u identity.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.TeamID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, err
	}
	u.Role = visibility.Role(role)
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]identity.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, team_id, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]identity.User, 0)
	for rows.Next() {
		var u identity.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.TeamID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = visibility.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id string, role visibility.Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	`, id, string(role), time.Now())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UsersRepo) SaveRefreshToken(ctx context.Context, t identity.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, t.ID, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt)
	return err
}

func (r *UsersRepo) GetRefreshToken(ctx context.Context, token string) (identity.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token, user_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, token)

	var t identity.RefreshToken
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return identity.RefreshToken{}, identity.ErrNotFound
		}
		return identity.RefreshToken{}, err
	}
	return t, nil
}

func (r *UsersRepo) RotateRefreshToken(ctx context.Context, id, newToken string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET token = $2, expires_at = $3 WHERE id = $1
	`, id, newToken, expiresAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}
