package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pollution-watch/internal/model"
)

const userColumns = "id,login,pass,nom,prenom,role,refresh_token,created_at"

// UserRepo is the credential store: user rows keyed by id and by login.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user whose ID and PasswordHash are already set.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, login, pass, nom, prenom, role) VALUES (?,?,?,?,?,?)",
		u.ID, u.Login, u.PasswordHash, u.Nom, u.Prenom, u.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrLoginExists
		}
		return err
	}
	return nil
}

// GetByLogin fetches a user by exact login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE login=? LIMIT 1", login)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns every user ordered by id (UUIDv7, so by creation time).
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := s.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Nom, &u.Prenom, &u.Role, &refresh, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.RefreshTokenHash = nullString(refresh)
	return u, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
