package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/webshop/internal/model"
)

const itemColumns = `id, name, description, price_cents, created_by, is_available, created_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var description sql.NullString
	var priceCents int64
	var createdBy sql.NullInt64
	err := row.Scan(&item.ID, &item.Name, &description, &priceCents, &createdBy, &item.IsAvailable, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Price = model.NewPriceFromCents(priceCents)
	item.CreatedBy = int64Ptr(createdBy)
	item.Photos = []int64{}
	return item, nil
}

// CreateItem creates a new item.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, price_cents, created_by, is_available)
		 VALUES (?, ?, ?, ?, ?)`,
		item.Name, nullString(item.Description), item.Price.Cents(), nullInt64(item.CreatedBy), item.IsAvailable,
	)
	if err != nil {
		return nil, classify("creating item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item with its photo ids, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	photos, err := photoIDsByItem(ctx, db, &id)
	if err != nil {
		return nil, err
	}
	if ids, ok := photos[id]; ok {
		item.Photos = ids
	}
	return item, nil
}

// ListItems returns all items with their photo ids.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	rows.Close()

	photos, err := photoIDsByItem(ctx, db, nil)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if ids, ok := photos[items[i].ID]; ok {
			items[i].Photos = ids
		}
	}
	return items, nil
}

// UpdateItem replaces an item's editable fields. created_by and created_at
// never change.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, price_cents = ?, is_available = ?
		 WHERE id = ?`,
		item.Name, nullString(item.Description), item.Price.Cents(), item.IsAvailable, item.ID,
	)
	if err != nil {
		return classify("updating item", err)
	}
	return checkAffected(result, "item")
}

// DeleteItem deletes an item together with its reviews and photos.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return classify("deleting item", err)
	}
	return checkAffected(result, "item")
}

// photoIDsByItem maps item ids to their photo ids, for one item or for all.
func photoIDsByItem(ctx context.Context, db *sql.DB, itemID *int64) (map[int64][]int64, error) {
	var rows *sql.Rows
	var err error

	if itemID != nil {
		rows, err = db.QueryContext(ctx,
			`SELECT id, item_id FROM item_photos WHERE item_id = ? ORDER BY id`, *itemID,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, item_id FROM item_photos ORDER BY id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing item photo ids: %w", err)
	}
	defer rows.Close()

	photos := make(map[int64][]int64)
	for rows.Next() {
		var id, item int64
		if err := rows.Scan(&id, &item); err != nil {
			return nil, fmt.Errorf("scanning item photo id: %w", err)
		}
		photos[item] = append(photos[item], id)
	}
	return photos, rows.Err()
}
