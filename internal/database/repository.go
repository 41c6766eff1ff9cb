package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gnemet/DeckPress/internal/export"
)

type Deck struct {
	ID         int             `json:"id"`
	Filename   string          `json:"filename"`
	SourcePath string          `json:"source_path"`
	BundleDir  string          `json:"bundle_dir"`
	Checksum   string          `json:"checksum"`
	SlideCount int             `json:"slide_count"`
	ImageCount int             `json:"image_count"`
	Manifest   json.RawMessage `json:"manifest"`
	CreatedAt  time.Time       `json:"created_at"`
}

type DeckSlide struct {
	ID          int             `json:"id"`
	DeckID      int             `json:"deck_id"`
	SlideNumber int             `json:"slide_number"`
	Title       string          `json:"title"`
	Bullets     json.RawMessage `json:"bullets"`
	Images      json.RawMessage `json:"images"`
}

// SaveDeck stores a deck and its manifest entries in one transaction.
func SaveDeck(db *sql.DB, d *Deck, manifest export.Manifest) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO decks (filename, source_path, bundle_dir, checksum, slide_count, image_count, manifest)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING id
	`
	var id int
	err = tx.QueryRow(query, d.Filename, d.SourcePath, d.BundleDir, d.Checksum, d.SlideCount, d.ImageCount, []byte(d.Manifest)).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, s := range manifest.Slides {
		bullets, _ := json.Marshal(s.Bullets)
		images, _ := json.Marshal(s.Images)
		_, err := tx.Exec(`
			INSERT INTO deck_slides (deck_id, slide_number, title, bullets, images)
			VALUES ($1, $2, $3, $4, $5)
		`, id, s.Index, s.Title, bullets, images)
		if err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

func GetDeckByChecksum(db *sql.DB, checksum string) (*Deck, error) {
	var d Deck
	query := "SELECT id, filename, source_path, bundle_dir, checksum, slide_count, image_count, manifest, created_at FROM decks WHERE checksum = $1"
	err := db.QueryRow(query, checksum).Scan(&d.ID, &d.Filename, &d.SourcePath, &d.BundleDir, &d.Checksum, &d.SlideCount, &d.ImageCount, &d.Manifest, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func UpdateDeckSource(db *sql.DB, id int, path string) error {
	_, err := db.Exec("UPDATE decks SET source_path = $1 WHERE id = $2", path, id)
	return err
}

func GetSlidesByDeck(db *sql.DB, deckID int) ([]DeckSlide, error) {
	rows, err := db.Query("SELECT id, deck_id, slide_number, title, bullets, images FROM deck_slides WHERE deck_id = $1 ORDER BY slide_number", deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []DeckSlide
	for rows.Next() {
		var s DeckSlide
		if err := rows.Scan(&s.ID, &s.DeckID, &s.SlideNumber, &s.Title, &s.Bullets, &s.Images); err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

func ClearDatabase(db *sql.DB) error {
	_, err := db.Exec("DELETE FROM decks")
	return err
}
