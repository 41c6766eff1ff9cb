package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnemet/DeckPress/internal/config"
	"github.com/gnemet/DeckPress/internal/database"
	"github.com/gnemet/DeckPress/internal/export"
	"github.com/gnemet/DeckPress/internal/observer"
)

func main() {
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(2)
	}

	// Database Connection (optional export registry)
	var db *sql.DB
	if cfg.Database.Enabled() {
		db, err = database.NewConnection(cfg.Database.GetConnectStr())
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := database.EnsureSchema(db); err != nil {
			log.Fatal(err)
		}
	}

	exporter := export.New(export.Options{
		AssetPrefix:   cfg.Export.AssetPrefix,
		MaxGroupDepth: cfg.Export.MaxGroupDepth,
		PartCacheSize: cfg.Export.PartCacheSize,
	}, log.New(os.Stderr, "", log.LstdFlags))

	srv, err := newServer(cfg, exporter)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Application.Storage.Stage != "" {
		logChan := make(chan string, 100)
		obs := observer.NewObserver(cfg, db, exporter, logChan)
		srv.watch(ctx, obs, logChan)
		go func() {
			if err := obs.Start(ctx); err != nil {
				log.Printf("Observer stopped: %v", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		Handler: srv.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("%s starting on http://localhost:%d\n", cfg.Application.Name, cfg.Application.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
