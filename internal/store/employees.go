package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/webshop/internal/model"
)

const employeeColumns = `id, first_name, last_name, role, hired_at, warehouse_id,
	street, house_number, postal_code, city, country`

func scanEmployee(row interface{ Scan(...any) error }) (*model.Employee, error) {
	e := &model.Employee{}
	var warehouseID sql.NullInt64
	var addr addressColumns
	dest := append([]any{&e.ID, &e.FirstName, &e.LastName, &e.Role, &e.HiredAt, &warehouseID}, addr.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.WarehouseID = int64Ptr(warehouseID)
	e.Address = addr.address()
	return e, nil
}

// CreateEmployee creates a new employee. A zero HiredAt means now.
func CreateEmployee(ctx context.Context, db *sql.DB, e *model.Employee) (*model.Employee, error) {
	hiredAt := e.HiredAt
	if hiredAt.IsZero() {
		hiredAt = time.Now().UTC()
	}

	args := append([]any{e.FirstName, e.LastName, e.Role, hiredAt, nullInt64(e.WarehouseID)}, addressArgs(e.Address)...)
	result, err := db.ExecContext(ctx,
		`INSERT INTO employees (first_name, last_name, role, hired_at, warehouse_id,
		                        street, house_number, postal_code, city, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return nil, classify("creating employee", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting employee id: %w", err)
	}

	return GetEmployee(ctx, db, id)
}

// GetEmployee returns an employee by ID, or nil if it does not exist.
func GetEmployee(ctx context.Context, db *sql.DB, id int64) (*model.Employee, error) {
	e, err := scanEmployee(db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns all employees.
func ListEmployees(ctx context.Context, db *sql.DB) ([]model.Employee, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// UpdateEmployee replaces an employee's fields.
func UpdateEmployee(ctx context.Context, db *sql.DB, e *model.Employee) error {
	args := append([]any{e.FirstName, e.LastName, e.Role, e.HiredAt, nullInt64(e.WarehouseID)}, addressArgs(e.Address)...)
	args = append(args, e.ID)
	result, err := db.ExecContext(ctx,
		`UPDATE employees SET first_name = ?, last_name = ?, role = ?, hired_at = ?, warehouse_id = ?,
		                      street = ?, house_number = ?, postal_code = ?, city = ?, country = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return classify("updating employee", err)
	}
	return checkAffected(result, "employee")
}

// DeleteEmployee deletes an employee.
func DeleteEmployee(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	return checkAffected(result, "employee")
}
