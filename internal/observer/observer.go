package observer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gnemet/DeckPress/internal/config"
	"github.com/gnemet/DeckPress/internal/database"
	"github.com/gnemet/DeckPress/internal/export"
	"github.com/gnemet/DeckPress/internal/metrics"
)

// Observer watches the stage directory and exports every presentation that
// lands there into its own bundle directory.
type Observer struct {
	cfg         *config.Config
	db          *sql.DB // optional export registry
	exporter    *export.Exporter
	activeTasks int
	mu          sync.Mutex
	LogChan     chan string

	// settle is how long a new file is left alone before export.
	settle time.Duration
}

func NewObserver(cfg *config.Config, db *sql.DB, exporter *export.Exporter, logChan chan string) *Observer {
	return &Observer{
		cfg:      cfg,
		db:       db,
		exporter: exporter,
		LogChan:  logChan,
		settle:   2 * time.Second,
	}
}

func (o *Observer) log(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Println(msg)
	if o.LogChan != nil {
		select {
		case o.LogChan <- msg:
		default:
			// fast non-blocking drop if buffer full
		}
	}
}

func (o *Observer) incrementTask() {
	o.mu.Lock()
	o.activeTasks++
	o.mu.Unlock()
}

func (o *Observer) decrementTask() {
	o.mu.Lock()
	o.activeTasks--
	o.mu.Unlock()
}

func (o *Observer) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	stageDir := o.cfg.Application.Storage.Stage
	if stageDir == "" {
		return fmt.Errorf("stage storage directory not configured")
	}

	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return fmt.Errorf("failed to create stage directory: %v", err)
	}

	if archiveDir := o.cfg.Application.Storage.Archive; archiveDir != "" {
		if err := os.MkdirAll(archiveDir, 0755); err != nil {
			o.log("Failed to create archive directory: %v", err)
		}
	}

	if err := watcher.Add(stageDir); err != nil {
		return err
	}

	o.log("Background observer started, watching: %s", stageDir)

	// Initial scan
	o.scanDirectory(stageDir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if isPresentation(event.Name) {
					o.log("Detected change in: %s", event.Name)

					// Debounce/delay for file transfer to complete
					select {
					case <-time.After(o.settle):
					case <-ctx.Done():
						return nil
					}
					o.processFile(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log("Watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func isPresentation(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pptx")
}

func (o *Observer) scanDirectory(dir string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		o.log("Failed to scan directory: %v", err)
		return
	}

	for _, f := range files {
		if !f.IsDir() && isPresentation(f.Name()) {
			o.processFile(filepath.Join(dir, f.Name()))
		}
	}
}

// BundleOutputs returns where the bundle of a staged file is written.
func (o *Observer) BundleOutputs(filename string) export.Outputs {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	dir := filepath.Join(o.cfg.Application.Storage.Bundles, name)
	return export.Outputs{
		ImagesDir:    filepath.Join(dir, "images"),
		MarkdownPath: filepath.Join(dir, "deck.md"),
		JSONPath:     filepath.Join(dir, "deck.json"),
		HTMLPath:     filepath.Join(dir, "deck.html"),
	}
}

func (o *Observer) processFile(path string) {
	o.incrementTask()
	defer o.decrementTask()

	filename := filepath.Base(path)
	o.log("Processing file: %s", filename)

	checksum, err := fileChecksum(path)
	if err != nil {
		o.log("Failed to read file for checksum %s: %v", filename, err)
	}

	if o.db != nil && checksum != "" {
		if existing, err := database.GetDeckByChecksum(o.db, checksum); err == nil {
			o.log("File %s (checksum: %s) already exported (ID: %d). Skipping duplicate processing.", filename, checksum, existing.ID)
			o.finalizeFile(path, filename, existing.ID)
			return
		} else if err != sql.ErrNoRows {
			o.log("DB error checking existing file: %v", err)
		}
	}

	out := o.BundleOutputs(filename)
	if err := export.Clear(out); err != nil {
		o.log("Failed to clear previous bundle of %s: %v", filename, err)
	}

	bundle, err := o.exporter.Export(path, out)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("watch", "error").Inc()
		o.log("Failed to export %s: %v", filename, err)
		return
	}
	metrics.Observe("watch", bundle.Stats)

	deckID := 0
	if o.db != nil {
		manifest, err := bundle.Manifest.Marshal()
		if err != nil {
			o.log("Failed to encode manifest of %s: %v", filename, err)
			return
		}
		deckID, err = database.SaveDeck(o.db, &database.Deck{
			Filename:   filename,
			SourcePath: path,
			BundleDir:  filepath.Dir(out.JSONPath),
			Checksum:   checksum,
			SlideCount: bundle.Stats.Slides,
			ImageCount: bundle.Stats.ImagesSaved,
			Manifest:   manifest,
		}, bundle.Manifest)
		if err != nil {
			o.log("Failed to save deck to DB: %v", err)
		}
	}

	o.log("Successfully exported: %s (slides: %d, images: %d, duplicates: %d, skipped: %d)",
		filename, bundle.Stats.Slides, bundle.Stats.ImagesSaved, bundle.Stats.Duplicates, bundle.Stats.Failures)

	o.finalizeFile(path, filename, deckID)
}

func fileChecksum(path string) (string, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(fileBytes)
	return hex.EncodeToString(hash[:]), nil
}

// finalizeFile moves an exported file out of the stage directory.
func (o *Observer) finalizeFile(path, filename string, deckID int) {
	if o.cfg.Application.Storage.Archive == "" {
		return
	}

	newPath := filepath.Join(o.cfg.Application.Storage.Archive, filename)
	if path == newPath {
		return
	}

	if err := os.Rename(path, newPath); err != nil {
		o.log("Failed to move %s to archive folder: %v", filename, err)
		return
	}
	o.log("Moved %s to %s", filename, newPath)

	if o.db != nil && deckID != 0 {
		if err := database.UpdateDeckSource(o.db, deckID, newPath); err != nil {
			o.log("Failed to update file path in DB: %v", err)
		}
	}
}

// ReprocessAll moves archived files back to stage and exports them again.
func (o *Observer) ReprocessAll() {
	o.incrementTask()
	defer o.decrementTask()

	o.log("STARTING FULL REPROCESS: Resetting state...")

	if o.db != nil {
		if err := database.ClearDatabase(o.db); err != nil {
			o.log("CRITICAL: Failed to clear database during reprocess: %v", err)
			return
		}
	}

	stageDir := o.cfg.Application.Storage.Stage
	archiveDir := o.cfg.Application.Storage.Archive

	if archiveDir != "" && stageDir != "" {
		files, err := os.ReadDir(archiveDir)
		if err == nil {
			for _, file := range files {
				if !file.IsDir() && isPresentation(file.Name()) {
					oldPath := filepath.Join(archiveDir, file.Name())
					newPath := filepath.Join(stageDir, file.Name())
					if err := os.Rename(oldPath, newPath); err != nil {
						o.log("Failed to move %s back to stage: %v", file.Name(), err)
					} else {
						o.log("Moved %s back to stage for reprocessing", file.Name())
					}
				}
			}
		}
	}

	o.log("Retriggering full scan of %s", stageDir)
	o.scanDirectory(stageDir)
}

func (o *Observer) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeTasks > 0
}
