package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"terrarium_control/internal/models"
)

// OperatorSQLite stores the operator accounts allowed to use the control API.
type OperatorSQLite struct {
	db *sql.DB
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db}
}

var _ Authorization = (*OperatorSQLite)(nil)

const (
	insertOperatorSQL     = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectOperatorSQL     = `SELECT id, username, password_hash FROM users WHERE username = ?`
	countOperatorsSQL     = `SELECT COUNT(*) FROM users`
	uniqueViolationMarker = "UNIQUE constraint failed"
)

// Create stores a new operator and returns its id. A username already in use yields
// models.ErrUsernameTaken.
func (r *OperatorSQLite) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(insertOperatorSQL, username, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), uniqueViolationMarker) {
			return 0, fmt.Errorf("operator %q: %w", username, models.ErrUsernameTaken)
		}
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("operator %q id: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when no operator has that name.
func (r *OperatorSQLite) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(selectOperatorSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return &u, nil
}

// Count is the number of registered operators.
func (r *OperatorSQLite) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(countOperatorsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}
