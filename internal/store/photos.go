package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

// CreatePhoto attaches a photo to an item.
func CreatePhoto(ctx context.Context, db *sql.DB, p *model.ItemPhoto) (*model.ItemPhoto, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO item_photos (item_id, photo_data, mime, width, height) VALUES (?, ?, ?, ?, ?)`,
		p.ItemID, p.PhotoData, p.MIME, p.Width, p.Height,
	)
	if err != nil {
		return nil, classify("creating item photo", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item photo id: %w", err)
	}

	return GetPhoto(ctx, db, id)
}

// GetPhoto returns a photo including its image data, or nil if it does not
// exist.
func GetPhoto(ctx context.Context, db *sql.DB, id int64) (*model.ItemPhoto, error) {
	p := &model.ItemPhoto{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, photo_data, mime, width, height, created_at
		 FROM item_photos WHERE id = ?`, id,
	).Scan(&p.ID, &p.ItemID, &p.PhotoData, &p.MIME, &p.Width, &p.Height, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item photo: %w", err)
	}
	return p, nil
}

// ListPhotos returns photo metadata without image data.
func ListPhotos(ctx context.Context, db *sql.DB) ([]model.ItemPhoto, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, mime, width, height, created_at FROM item_photos ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item photos: %w", err)
	}
	defer rows.Close()

	var photos []model.ItemPhoto
	for rows.Next() {
		var p model.ItemPhoto
		if err := rows.Scan(&p.ID, &p.ItemID, &p.MIME, &p.Width, &p.Height, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// UpdatePhoto replaces a photo's item and image.
func UpdatePhoto(ctx context.Context, db *sql.DB, p *model.ItemPhoto) error {
	result, err := db.ExecContext(ctx,
		`UPDATE item_photos SET item_id = ?, photo_data = ?, mime = ?, width = ?, height = ? WHERE id = ?`,
		p.ItemID, p.PhotoData, p.MIME, p.Width, p.Height, p.ID,
	)
	if err != nil {
		return classify("updating item photo", err)
	}
	return checkAffected(result, "item photo")
}

// DeletePhoto deletes a photo.
func DeletePhoto(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM item_photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item photo: %w", err)
	}
	return checkAffected(result, "item photo")
}
