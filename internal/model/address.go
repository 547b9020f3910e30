package model

// Address is a postal address. It is embedded in users, warehouses and
// employees and flattened into their JSON representation.
type Address struct {
	Street      string `json:"street" validate:"max=100"`
	HouseNumber string `json:"house_number" validate:"max=10"`
	PostalCode  string `json:"postal_code" validate:"max=15"`
	City        string `json:"city" validate:"max=50"`
	Country     string `json:"country" validate:"max=50"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}
