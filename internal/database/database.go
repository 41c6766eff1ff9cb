package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

func NewConnection(connectStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS decks (
	id          SERIAL PRIMARY KEY,
	filename    TEXT NOT NULL,
	source_path TEXT NOT NULL,
	bundle_dir  TEXT NOT NULL,
	checksum    TEXT UNIQUE,
	slide_count INTEGER NOT NULL DEFAULT 0,
	image_count INTEGER NOT NULL DEFAULT 0,
	manifest    JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS deck_slides (
	id           SERIAL PRIMARY KEY,
	deck_id      INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	slide_number INTEGER NOT NULL,
	title        TEXT NOT NULL,
	bullets      JSONB NOT NULL,
	images       JSONB NOT NULL,
	UNIQUE (deck_id, slide_number)
);
`

// EnsureSchema creates the registry tables when they are missing.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}
