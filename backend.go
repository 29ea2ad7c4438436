/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/store"
)

// services are the stores every session on this process shares.
type services struct {
	library *cards.Library
	scores  store.Scores
	prefs   store.Preferences
	close   func()
}

// openServices keeps settings in the data directory, and packs and scores
// either there or in PostgreSQL when a database url is configured.
func openServices(ctx context.Context, cfg *Config) (*services, error) {
	files, err := store.OpenFile(cfg.dataDir, store.WithFileLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("opening data directory %s: %w", cfg.dataDir, err)
	}

	svc := &services{
		prefs: files,
		close: func() {},
	}

	var backend store.Backend = files

	if cfg.databaseURL != "" {
		pg, err := store.OpenPostgres(ctx, cfg.databaseURL, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		backend = pg
		svc.close = pg.Close

		logf(cfg, "STORE: Using PostgreSQL for packs and scores")
	} else {
		logf(cfg, "STORE: Using %s for packs and scores", files.Dir())
	}

	svc.library = cards.NewLibrary(backend)
	svc.scores = backend

	if err := svc.library.Reload(ctx); err != nil {
		cfg.logger.Warn().Err(err).Msg("custom packs unavailable, continuing with built-ins")
	}

	return svc, nil
}
