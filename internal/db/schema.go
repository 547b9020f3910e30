package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Constraints duplicate the validation
// rules so that writers that race past validation are still rejected.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    street        TEXT,
    house_number  TEXT,
    postal_code   TEXT,
    city          TEXT,
    country       TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS warehouses (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    street       TEXT NOT NULL,
    house_number TEXT NOT NULL,
    postal_code  TEXT NOT NULL,
    city         TEXT NOT NULL,
    country      TEXT NOT NULL,
    capacity     INTEGER NOT NULL CHECK (capacity > 0)
);

CREATE TABLE IF NOT EXISTS employees (
    id           INTEGER PRIMARY KEY,
    first_name   TEXT NOT NULL,
    last_name    TEXT NOT NULL,
    role         TEXT NOT NULL,
    hired_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    warehouse_id INTEGER REFERENCES warehouses(id) ON DELETE SET NULL,
    street       TEXT,
    house_number TEXT,
    postal_code  TEXT,
    city         TEXT,
    country      TEXT
);

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL CHECK (length(trim(name)) > 0),
    description  TEXT,
    price_cents  INTEGER NOT NULL CHECK (price_cents > 0),
    created_by   INTEGER REFERENCES users(id) ON DELETE SET NULL,
    is_available INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reviews (
    id               INTEGER PRIMARY KEY,
    reviewer_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    review_type      TEXT NOT NULL CHECK (review_type IN ('item', 'user')),
    item_id          INTEGER REFERENCES items(id) ON DELETE CASCADE,
    reviewed_user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
    rating           INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment          TEXT NOT NULL CHECK (length(trim(comment)) > 0),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((review_type = 'item' AND item_id IS NOT NULL AND reviewed_user_id IS NULL)
        OR (review_type = 'user' AND reviewed_user_id IS NOT NULL AND item_id IS NULL)),
    CHECK (reviewed_user_id IS NULL OR reviewed_user_id <> reviewer_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_reviewer_item
    ON reviews(reviewer_id, item_id) WHERE item_id IS NOT NULL;

CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_reviewer_user
    ON reviews(reviewer_id, reviewed_user_id) WHERE reviewed_user_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS item_photos (
    id         INTEGER PRIMARY KEY,
    item_id    INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    photo_data BLOB NOT NULL,
    mime       TEXT NOT NULL,
    width      INTEGER NOT NULL,
    height     INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_item_photos_item ON item_photos(item_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
