package model

import "time"

// Item is a listing put up for sale by a user.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"notblank,max=100"`
	Description string    `json:"description"`
	Price       Price     `json:"price"`
	CreatedBy   *int64    `json:"created_by"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`

	// Photos holds the ids of attached photos (read only).
	Photos []int64 `json:"photos"`
}

// OwnerID returns the creator of the item. Items whose creator was deleted
// have no owner.
func (i *Item) OwnerID() (int64, bool) {
	if i.CreatedBy == nil {
		return 0, false
	}
	return *i.CreatedBy, true
}
