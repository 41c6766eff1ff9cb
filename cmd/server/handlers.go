package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gnemet/DeckPress/internal/config"
	"github.com/gnemet/DeckPress/internal/export"
	"github.com/gnemet/DeckPress/internal/metrics"
	"github.com/gnemet/DeckPress/internal/observer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// server publishes a single current bundle under the public slides dir.
type server struct {
	cfg      *config.Config
	exporter *export.Exporter
	outputs  export.Outputs

	// mu serializes exports and resets; they all touch the same bundle.
	mu sync.Mutex

	// obs is set when watch mode is enabled.
	obs      *observer.Observer
	activity *activityLog
}

// activityLog keeps the most recent observer messages.
type activityLog struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func (a *activityLog) add(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, msg)
	if len(a.lines) > a.max {
		a.lines = a.lines[len(a.lines)-a.max:]
	}
}

func (a *activityLog) recent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.lines...)
}

// watch attaches the stage observer and collects its messages until ctx ends.
func (s *server) watch(ctx context.Context, obs *observer.Observer, logChan <-chan string) {
	s.obs = obs
	go func() {
		for {
			select {
			case msg := <-logChan:
				s.activity.add(msg)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func newServer(cfg *config.Config, exporter *export.Exporter) (*server, error) {
	slidesDir := cfg.PublicSlidesDir()
	s := &server{
		cfg:      cfg,
		exporter: exporter,
		activity: &activityLog{max: 100},
		outputs: export.Outputs{
			ImagesDir:    filepath.Join(slidesDir, "images"),
			MarkdownPath: filepath.Join(slidesDir, "deck.md"),
			JSONPath:     filepath.Join(slidesDir, "deck.json"),
			HTMLPath:     filepath.Join(slidesDir, "deck.html"),
		},
	}

	for _, dir := range []string{cfg.Application.Storage.Uploads, s.outputs.ImagesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/slides/", http.StripPrefix("/slides/", http.FileServer(http.Dir(s.cfg.PublicSlidesDir()))))
	if bundles := s.cfg.Application.Storage.Bundles; bundles != "" {
		mux.Handle("/bundles/", http.StripPrefix("/bundles/", http.FileServer(http.Dir(bundles))))
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/upload/ppt", s.handleUpload)
	mux.HandleFunc("/api/slides/reset", s.handleReset)
	mux.HandleFunc("/api/slides", s.handleSlides)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/bundles/reprocess", s.handleReprocess)
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.cfg.Application.MaxUploadMB << 20
	if maxBytes <= 0 {
		maxBytes = 150 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !isPresentation(mtype, header.Filename) {
		http.Error(w, fmt.Sprintf("Unsupported file type %s", mtype.String()), http.StatusUnsupportedMediaType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	destPath := filepath.Join(s.cfg.Application.Storage.Uploads, uuid.NewString()+"-"+filepath.Base(header.Filename))
	dest, err := os.Create(destPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, err = io.Copy(dest, file)
	dest.Close()
	if err != nil {
		os.Remove(destPath)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := export.Clear(s.outputs); err != nil {
		log.Printf("Cleanup before convert failed: %v", err)
	}

	bundle, err := s.exporter.Export(destPath, s.outputs)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("upload", "error").Inc()
		log.Printf("Conversion of %s failed: %v", header.Filename, err)
		http.Error(w, "Conversion failed", http.StatusInternalServerError)
		return
	}
	metrics.Observe("upload", bundle.Stats)
	log.Printf("Converted %s: %d slides, %d images", header.Filename, bundle.Stats.Slides, bundle.Stats.ImagesSaved)

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "slides": bundle.Stats.Slides})
}

// isPresentation accepts a sniffed pptx, or any zip named .pptx since some
// writers order the archive so that the sniffer only sees a plain zip.
func isPresentation(mtype *mimetype.MIME, filename string) bool {
	if mtype.Is(pptxMIME) {
		return true
	}
	return mtype.Is("application/zip") && strings.EqualFold(filepath.Ext(filename), ".pptx")
}

func (s *server) handleSlides(w http.ResponseWriter, r *http.Request) {
	images, err := export.ListImages(s.outputs.ImagesDir, s.cfg.Export.AssetPrefix)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	_, statErr := os.Stat(s.outputs.MarkdownPath)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"images":   images,
		"markdown": statErr == nil,
	})
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	err := export.Clear(s.outputs)
	s.mu.Unlock()
	if err != nil {
		log.Printf("Reset failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watching":   s.obs != nil,
		"processing": s.obs != nil && s.obs.IsProcessing(),
		"log":        s.activity.recent(),
	})
}

func (s *server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.obs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "watch mode is disabled"})
		return
	}
	if s.obs.IsProcessing() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "processing in progress"})
		return
	}

	go s.obs.ReprocessAll()
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}
