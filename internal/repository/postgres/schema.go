package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            SERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    avatar_url    TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (LOWER(username));

CREATE TABLE IF NOT EXISTS categories (
    id   SERIAL PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories (LOWER(name));

CREATE TABLE IF NOT EXISTS items (
    id                  SERIAL PRIMARY KEY,
    name                TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    category_id         INTEGER NOT NULL REFERENCES categories(id),
    price_per_day_cents BIGINT NOT NULL CHECK (price_per_day_cents >= 0),
    deposit_cents       BIGINT NOT NULL DEFAULT 0 CHECK (deposit_cents >= 0),
    image_url           TEXT NOT NULL DEFAULT '',
    availability_status TEXT NOT NULL DEFAULT 'Available'
                        CHECK (availability_status IN ('Available', 'Rented', 'Unavailable')),
    available_from_date DATE,
    owner_id            INTEGER NOT NULL REFERENCES users(id),
    location            TEXT NOT NULL DEFAULT '',
    rating              NUMERIC(3,2) NOT NULL DEFAULT 0,
    reviews_count       INTEGER NOT NULL DEFAULT 0,
    delivery_method     TEXT NOT NULL DEFAULT 'Pick Up',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items (owner_id);

CREATE TABLE IF NOT EXISTS rental_requests (
    id                  SERIAL PRIMARY KEY,
    item_id             INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    requester_id        INTEGER NOT NULL REFERENCES users(id),
    owner_id            INTEGER NOT NULL REFERENCES users(id),
    start_date          DATE NOT NULL,
    end_date            DATE NOT NULL CHECK (end_date >= start_date),
    status              TEXT NOT NULL DEFAULT 'Pending',
    total_price_cents   BIGINT NOT NULL,
    deposit_cents       BIGINT NOT NULL DEFAULT 0,
    handover_code       TEXT NOT NULL DEFAULT '',
    return_code         TEXT NOT NULL DEFAULT '',
    paid_at             TIMESTAMPTZ,
    handed_over_at      TIMESTAMPTZ,
    rating_given        INTEGER CHECK (rating_given BETWEEN 1 AND 5),
    requested_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (requester_id <> owner_id)
);

CREATE INDEX IF NOT EXISTS idx_requests_item ON rental_requests (item_id);
CREATE INDEX IF NOT EXISTS idx_requests_requester ON rental_requests (requester_id);
CREATE INDEX IF NOT EXISTS idx_requests_owner ON rental_requests (owner_id);

CREATE TABLE IF NOT EXISTS notifications (
    id                SERIAL PRIMARY KEY,
    target_user_id    INTEGER NOT NULL REFERENCES users(id),
    event_type        TEXT NOT NULL,
    title             TEXT NOT NULL,
    message           TEXT NOT NULL,
    link              TEXT NOT NULL DEFAULT '',
    is_read           BOOLEAN NOT NULL DEFAULT FALSE,
    related_item_id   INTEGER NOT NULL DEFAULT 0,
    related_user_id   INTEGER NOT NULL DEFAULT 0,
    related_user_name TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_target ON notifications (target_user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversations (
    id              SERIAL PRIMARY KEY,
    participant_ids INTEGER[] NOT NULL,
    item_id         INTEGER REFERENCES items(id) ON DELETE SET NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS messages (
    id              SERIAL PRIMARY KEY,
    conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    sender_id       INTEGER NOT NULL REFERENCES users(id),
    text            TEXT NOT NULL,
    is_read         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);
`

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
