package model

import "time"

// ItemPhoto is an image attached to an item.
type ItemPhoto struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item"`
	PhotoData []byte    `json:"photo_data,omitempty"`
	MIME      string    `json:"mime"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}
