package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

const reviewColumns = `id, reviewer_id, review_type, item_id, reviewed_user_id, rating, comment, created_at`

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	r := &model.Review{}
	var itemID, reviewedUserID sql.NullInt64
	err := row.Scan(&r.ID, &r.ReviewerID, &r.Type, &itemID, &reviewedUserID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ItemID = int64Ptr(itemID)
	r.ReviewedUserID = int64Ptr(reviewedUserID)
	return r, nil
}

// CreateReview creates a new review. A second review by the same reviewer of
// the same target fails with a constraint violation, even when it raced past
// validation.
func CreateReview(ctx context.Context, db *sql.DB, r *model.Review) (*model.Review, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO reviews (reviewer_id, review_type, item_id, reviewed_user_id, rating, comment)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ReviewerID, string(r.Type), nullInt64(r.ItemID), nullInt64(r.ReviewedUserID), r.Rating, r.Comment,
	)
	if err != nil {
		return nil, classify("creating review", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting review id: %w", err)
	}

	return GetReview(ctx, db, id)
}

// GetReview returns a review by ID, or nil if it does not exist.
func GetReview(ctx context.Context, db *sql.DB, id int64) (*model.Review, error) {
	r, err := scanReview(db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting review: %w", err)
	}
	return r, nil
}

// ListReviews returns all reviews.
func ListReviews(ctx context.Context, db *sql.DB) ([]model.Review, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// UpdateReview replaces a review's type, target, rating and comment. The
// reviewer never changes.
func UpdateReview(ctx context.Context, db *sql.DB, r *model.Review) error {
	result, err := db.ExecContext(ctx,
		`UPDATE reviews SET review_type = ?, item_id = ?, reviewed_user_id = ?, rating = ?, comment = ?
		 WHERE id = ?`,
		string(r.Type), nullInt64(r.ItemID), nullInt64(r.ReviewedUserID), r.Rating, r.Comment, r.ID,
	)
	if err != nil {
		return classify("updating review", err)
	}
	return checkAffected(result, "review")
}

// DeleteReview deletes a review.
func DeleteReview(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	return checkAffected(result, "review")
}

// ReviewExists reports whether reviewerID already reviewed target. The review
// with id excludeID is ignored so that a review can be updated in place.
func ReviewExists(ctx context.Context, db *sql.DB, reviewerID int64, target model.ReviewTarget, excludeID int64) (bool, error) {
	var query string
	switch target.Type {
	case model.ReviewTypeItem:
		query = `SELECT COUNT(*) FROM reviews WHERE reviewer_id = ? AND item_id = ? AND id <> ?`
	case model.ReviewTypeUser:
		query = `SELECT COUNT(*) FROM reviews WHERE reviewer_id = ? AND reviewed_user_id = ? AND id <> ?`
	default:
		return false, fmt.Errorf("unknown review type %q", target.Type)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, reviewerID, target.ID, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("checking existing review: %w", err)
	}
	return count > 0, nil
}
