package api

import (
	"database/sql"
	"encoding/json"

	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/validation"
)

// handler holds what every resource handler needs.
type handler struct {
	DB        *sql.DB
	Policy    *policy.Policy
	Validator *validation.Engine
}

// optionalID is a nullable reference in a request body. Set distinguishes an
// explicit null from an absent field.
type optionalID struct {
	Set bool
	ID  *int64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.ID = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

func (o optionalID) apply(dst **int64) {
	if o.Set {
		*dst = o.ID
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
