package model

import "time"

// Employee works at a warehouse. WarehouseID is cleared when the warehouse is
// deleted.
type Employee struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name" validate:"notblank,max=50"`
	LastName    string    `json:"last_name" validate:"notblank,max=50"`
	Role        string    `json:"role" validate:"notblank,max=50"`
	HiredAt     time.Time `json:"hired_at"`
	WarehouseID *int64    `json:"warehouse"`

	Address
}
