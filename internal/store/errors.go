package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
)

// classify wraps a driver error, turning SQLite constraint failures into
// apperr.KindConstraintViolation so the API layer can report them as
// conflicts instead of internal errors.
func classify(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperr.Wrap(apperr.KindConstraintViolation, "record already exists", fmt.Errorf("%s: %w", op, err))
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperr.Wrap(apperr.KindConstraintViolation, "referenced record does not exist", fmt.Errorf("%s: %w", op, err))
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return apperr.Wrap(apperr.KindConstraintViolation, "record violates a constraint", fmt.Errorf("%s: %w", op, err))
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return apperr.Wrap(apperr.KindConstraintViolation, "record violates a constraint", fmt.Errorf("%s: %w", op, err))
		}
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return apperr.Wrap(apperr.KindConstraintViolation, "record violates a constraint", fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkAffected returns a not-found error when a write touched no rows.
func checkAffected(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// addressColumns holds the nullable address columns while scanning.
type addressColumns struct {
	street, houseNumber, postalCode, city, country sql.NullString
}

func (a *addressColumns) dest() []any {
	return []any{&a.street, &a.houseNumber, &a.postalCode, &a.city, &a.country}
}

func (a *addressColumns) address() model.Address {
	return model.Address{
		Street:      a.street.String,
		HouseNumber: a.houseNumber.String,
		PostalCode:  a.postalCode.String,
		City:        a.city.String,
		Country:     a.country.String,
	}
}

func addressArgs(a model.Address) []any {
	return []any{
		nullString(a.Street),
		nullString(a.HouseNumber),
		nullString(a.PostalCode),
		nullString(a.City),
		nullString(a.Country),
	}
}
