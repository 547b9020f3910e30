package model

import (
	"fmt"
	"time"
)

// ReviewType selects which of the two review shapes a review has.
type ReviewType string

// Review types.
const (
	ReviewTypeItem ReviewType = "item"
	ReviewTypeUser ReviewType = "user"
)

// Review is either an item review (ItemID set) or a user review
// (ReviewedUserID set). Type decides which one; the other reference is nil.
type Review struct {
	ID             int64      `json:"id"`
	ReviewerID     int64      `json:"reviewer"`
	Type           ReviewType `json:"review_type" validate:"oneof=item user"`
	ItemID         *int64     `json:"item"`
	ReviewedUserID *int64     `json:"reviewed_user"`
	Rating         int        `json:"rating" validate:"min=1,max=5"`
	Comment        string     `json:"comment" validate:"notblank"`
	CreatedAt      time.Time  `json:"created_at"`
}

// OwnerID returns the reviewer.
func (r *Review) OwnerID() (int64, bool) {
	return r.ReviewerID, true
}

// ReviewTarget is the thing a review is about: an item or another user.
type ReviewTarget struct {
	Type ReviewType
	ID   int64
}

// Target returns the review's target according to its type. It fails when the
// reference required by the type is missing.
func (r *Review) Target() (ReviewTarget, error) {
	switch r.Type {
	case ReviewTypeItem:
		if r.ItemID == nil {
			return ReviewTarget{}, fmt.Errorf("item review without item")
		}
		return ReviewTarget{Type: ReviewTypeItem, ID: *r.ItemID}, nil
	case ReviewTypeUser:
		if r.ReviewedUserID == nil {
			return ReviewTarget{}, fmt.Errorf("user review without reviewed user")
		}
		return ReviewTarget{Type: ReviewTypeUser, ID: *r.ReviewedUserID}, nil
	default:
		return ReviewTarget{}, fmt.Errorf("unknown review type %q", r.Type)
	}
}
