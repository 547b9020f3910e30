package model

// Warehouse is a storage location with a fixed capacity. Unlike the optional
// addresses on users and employees, every warehouse address field is required.
type Warehouse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"notblank,max=100"`
	Street      string `json:"street" validate:"notblank,max=100"`
	HouseNumber string `json:"house_number" validate:"notblank,max=10"`
	PostalCode  string `json:"postal_code" validate:"notblank,max=15"`
	City        string `json:"city" validate:"notblank,max=50"`
	Country     string `json:"country" validate:"notblank,max=50"`
	Capacity    int    `json:"capacity" validate:"gt=0"`
}
