package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

const userColumns = `id, username, email, first_name, last_name, password_hash,
	street, house_number, postal_code, city, country, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	var addr addressColumns
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash}, addr.dest()...)
	dest = append(dest, &u.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Address = addr.address()
	return u, nil
}

// CreateUser creates a new user. Username and email must be unique.
func CreateUser(ctx context.Context, db *sql.DB, u *model.User) (*model.User, error) {
	args := append([]any{u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash}, addressArgs(u.Address)...)
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, first_name, last_name, password_hash,
		                    street, house_number, postal_code, city, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return nil, classify("creating user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByLogin returns the user whose username or email matches login.
func GetUserByLogin(ctx context.Context, db *sql.DB, login string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`, login, login,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's profile fields. A non-empty PasswordHash
// replaces the stored hash in the same statement; an empty one keeps it.
func UpdateUser(ctx context.Context, db *sql.DB, u *model.User) error {
	args := append([]any{u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash}, addressArgs(u.Address)...)
	args = append(args, u.ID)
	result, err := db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?,
		                  password_hash = COALESCE(NULLIF(?, ''), password_hash),
		                  street = ?, house_number = ?, postal_code = ?, city = ?, country = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return classify("updating user", err)
	}
	return checkAffected(result, "user")
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return checkAffected(result, "user")
}

// DeleteUser deletes a user. Their items stay with created_by cleared; reviews
// they wrote or received are removed.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return classify("deleting user", err)
	}
	return checkAffected(result, "user")
}

// CountUsers returns the number of registered users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
