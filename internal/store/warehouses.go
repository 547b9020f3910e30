package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

const warehouseColumns = `id, name, street, house_number, postal_code, city, country, capacity`

func scanWarehouse(row interface{ Scan(...any) error }) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	err := row.Scan(&w.ID, &w.Name, &w.Street, &w.HouseNumber, &w.PostalCode, &w.City, &w.Country, &w.Capacity)
	return w, err
}

// CreateWarehouse creates a new warehouse.
func CreateWarehouse(ctx context.Context, db *sql.DB, w *model.Warehouse) (*model.Warehouse, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO warehouses (name, street, house_number, postal_code, city, country, capacity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.Name, w.Street, w.HouseNumber, w.PostalCode, w.City, w.Country, w.Capacity,
	)
	if err != nil {
		return nil, classify("creating warehouse", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting warehouse id: %w", err)
	}

	return GetWarehouse(ctx, db, id)
}

// GetWarehouse returns a warehouse by ID, or nil if it does not exist.
func GetWarehouse(ctx context.Context, db *sql.DB, id int64) (*model.Warehouse, error) {
	w, err := scanWarehouse(db.QueryRowContext(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting warehouse: %w", err)
	}
	return w, nil
}

// ListWarehouses returns all warehouses.
func ListWarehouses(ctx context.Context, db *sql.DB) ([]model.Warehouse, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+warehouseColumns+` FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning warehouse: %w", err)
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, rows.Err()
}

// UpdateWarehouse replaces a warehouse's fields.
func UpdateWarehouse(ctx context.Context, db *sql.DB, w *model.Warehouse) error {
	result, err := db.ExecContext(ctx,
		`UPDATE warehouses SET name = ?, street = ?, house_number = ?, postal_code = ?,
		                       city = ?, country = ?, capacity = ?
		 WHERE id = ?`,
		w.Name, w.Street, w.HouseNumber, w.PostalCode, w.City, w.Country, w.Capacity, w.ID,
	)
	if err != nil {
		return classify("updating warehouse", err)
	}
	return checkAffected(result, "warehouse")
}

// DeleteWarehouse deletes a warehouse. Its employees stay, without a warehouse.
func DeleteWarehouse(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM warehouses WHERE id = ?`, id)
	if err != nil {
		return classify("deleting warehouse", err)
	}
	return checkAffected(result, "warehouse")
}
