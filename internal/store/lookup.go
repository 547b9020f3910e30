package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

// Lookup answers the existence questions the validation engine asks before a
// write.
type Lookup struct {
	DB *sql.DB
}

// NewLookup returns a Lookup backed by db.
func NewLookup(db *sql.DB) *Lookup {
	return &Lookup{DB: db}
}

func (l *Lookup) exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int
	err := l.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", table, err)
	}
	return n > 0, nil
}

// UserExists reports whether a user with the given id exists.
func (l *Lookup) UserExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, "users", id)
}

// ItemExists reports whether an item with the given id exists.
func (l *Lookup) ItemExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, "items", id)
}

// WarehouseExists reports whether a warehouse with the given id exists.
func (l *Lookup) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, "warehouses", id)
}

// ReviewExists reports whether reviewerID already reviewed target.
func (l *Lookup) ReviewExists(ctx context.Context, reviewerID int64, target model.ReviewTarget, excludeID int64) (bool, error) {
	return ReviewExists(ctx, l.DB, reviewerID, target, excludeID)
}
