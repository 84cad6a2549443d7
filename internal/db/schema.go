package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('staff', 'donor', 'client')),
    bill_address  TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    main_category TEXT NOT NULL,
    sub_category  TEXT NOT NULL,
    notes         TEXT,
    PRIMARY KEY (main_category, sub_category)
);

CREATE TABLE IF NOT EXISTS items (
    id            INTEGER PRIMARY KEY,
    description   TEXT NOT NULL,
    photo         TEXT,
    color         TEXT,
    is_new        INTEGER NOT NULL DEFAULT 0,
    has_pieces    INTEGER NOT NULL DEFAULT 0,
    material      TEXT,
    main_category TEXT NOT NULL,
    sub_category  TEXT NOT NULL,
    image         BLOB,
    image_mime    TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (main_category, sub_category) REFERENCES categories(main_category, sub_category)
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(main_category, sub_category);

CREATE TABLE IF NOT EXISTS locations (
    room_num    INTEGER NOT NULL,
    shelf_num   INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (room_num, shelf_num)
);

-- room_num/shelf_num is a lookup into locations, not a foreign key: pieces
-- may be stored before their location is described.
CREATE TABLE IF NOT EXISTS pieces (
    item_id     INTEGER NOT NULL REFERENCES items(id),
    piece_num   INTEGER NOT NULL CHECK (piece_num >= 1),
    description TEXT NOT NULL,
    length      REAL NOT NULL CHECK (length >= 0),
    width       REAL NOT NULL CHECK (width >= 0),
    height      REAL NOT NULL CHECK (height >= 0),
    room_num    INTEGER NOT NULL,
    shelf_num   INTEGER NOT NULL,
    notes       TEXT,
    PRIMARY KEY (item_id, piece_num)
);

CREATE TABLE IF NOT EXISTS donations (
    item_id        INTEGER PRIMARY KEY REFERENCES items(id),
    donor_username TEXT NOT NULL REFERENCES users(username),
    donate_date    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_donations_donor ON donations(donor_username);

CREATE TABLE IF NOT EXISTS orders (
    id         INTEGER PRIMARY KEY,
    order_date DATETIME NOT NULL,
    notes      TEXT,
    supervisor TEXT NOT NULL REFERENCES users(username),
    client     TEXT NOT NULL REFERENCES users(username),
    status     TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed'))
);

-- UNIQUE(item_id): an item is pulled for at most one order in its lifetime.
CREATE TABLE IF NOT EXISTS item_assignments (
    item_id  INTEGER NOT NULL UNIQUE REFERENCES items(id),
    order_id INTEGER NOT NULL REFERENCES orders(id),
    found    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (item_id, order_id)
);

CREATE INDEX IF NOT EXISTS idx_item_assignments_order ON item_assignments(order_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: order listings filter by client.
	`CREATE INDEX IF NOT EXISTS idx_orders_client ON orders(client)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
