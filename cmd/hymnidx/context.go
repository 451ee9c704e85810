package main

import (
	"context"
	"fmt"
	"log/slog"

	"hymnidx/internal"
	"hymnidx/internal/config"
	"hymnidx/internal/lookup"
	"hymnidx/internal/playlist"
	"hymnidx/internal/storage"
)

// listerFactory builds the playlist client; tests swap it for a stub.
type listerFactory func(ctx context.Context, cfg config.Config) (playlist.Lister, error)

type commandContext struct {
	cfg       config.Config
	log       *slog.Logger
	newLister listerFactory
}

func newCommandContext() *commandContext {
	return &commandContext{
		newLister: func(ctx context.Context, cfg config.Config) (playlist.Lister, error) {
			return playlist.NewClient(ctx, cfg)
		},
	}
}

func (c *commandContext) withDB(fn func(*storage.DB) error) error {
	db, err := storage.Open(c.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func loadTable(db *storage.DB, name string) (*lookup.Table, error) {
	info, err := db.MustTable(name)
	if err != nil {
		return nil, err
	}
	entries, err := db.LoadEntries(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return lookup.New(info, entries), nil
}

func requireCalendar(t *lookup.Table) error {
	if t.Info().Kind != internal.KindCalendar {
		return fmt.Errorf("%w: table %s is a %s table, not a calendar", internal.ErrInvalidInput, t.Info().Name, t.Info().Kind)
	}
	return nil
}
