package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/regdown/internal/api"
	"github.com/dgallion1/regdown/internal/config"
	"github.com/dgallion1/regdown/internal/labelstore"
	"github.com/dgallion1/regdown/internal/regdown"
	"github.com/dgallion1/regdown/internal/stats"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize the label store, if any.
	var (
		store  labelstore.Store
		client *labelstore.Client
	)
	switch {
	case cfg.ReferencesFile != "":
		m, err := labelstore.LoadFile(cfg.ReferencesFile)
		if err != nil {
			log.Error("failed to load references", "path", cfg.ReferencesFile, "error", err)
			os.Exit(1)
		}
		log.Info("loaded references", "path", cfg.ReferencesFile, "labels", len(m))
		store = m
	case cfg.LabelStoreURL != "":
		client = labelstore.NewClient(cfg.LabelStoreURL, cfg.LabelStoreAPIKey, cfg.LabelStorePrefix)
		store = client
	}

	// Initialize the pipeline.
	rdCfg := regdown.DefaultConfig()
	rdCfg.MaxDepth = cfg.MaxReferenceDepth
	rdCfg.DisableTables = cfg.DisableTables
	rdCfg.XHTML = cfg.XHTML
	rdCfg.Logger = log.With("component", "regdown")

	var refs *labelstore.Resolver
	if store != nil {
		var cache *labelstore.Cache
		if cfg.ReferenceCacheTTL > 0 {
			cache = labelstore.NewCache(cfg.ReferenceCacheTTL)
		}
		refs = labelstore.NewResolver(store, cache, cfg.ReferenceURL, log.With("component", "labelstore"))
		rdCfg.URLResolver = refs.URL
		rdCfg.ContentsResolver = refs.Contents
	}
	rd := regdown.New(rdCfg)

	// Initialize HTTP server.
	srv := api.NewServer(rd, refs, store, stats.NewRenderStats(cfg.StatsWindow), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if client != nil {
			client.Close()
		}
	}()

	log.Info("starting regdown", "port", cfg.Port, "max_reference_depth", cfg.MaxReferenceDepth)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
