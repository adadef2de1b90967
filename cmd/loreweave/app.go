package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/michaelquigley/df/dl"
	"github.com/spf13/cobra"

	"loreweave/internal/cache"
	"loreweave/internal/config"
	"loreweave/internal/sources"
	"loreweave/internal/store"
	"loreweave/internal/store/postgres"
	"loreweave/internal/store/sqlite"
	"loreweave/internal/story"
	"loreweave/internal/tools"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	cfg        *config.Config
	logOpts    *dl.Options
	store      store.Store
	cache      *cache.Cache
	dispatcher *tools.Dispatcher
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	explicit := cmd.Root().PersistentFlags().Changed("config")
	cfg, err := config.Load(configPath, !explicit)
	if err != nil {
		return nil, err
	}

	logOpts, err := logOptions(cfg.Log)
	if err != nil {
		return nil, err
	}
	dl.Init(logOpts)

	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mem := cache.New(cache.Options{
		TTL:           cfg.Cache.TTL,
		MaxEntries:    cfg.Cache.MaxEntries,
		SweepInterval: time.Minute,
	})

	opts := story.Options{
		Anime: sources.NewJikan(sourceOptions(cfg, cfg.Sources.Jikan)),
		Media: sources.NewAniList(sourceOptions(cfg, cfg.Sources.AniList)),
		Manga: sources.NewMangaDex(sourceOptions(cfg, cfg.Sources.MangaDex)),
		Wiki:  sources.NewWiki(sourceOptions(cfg, cfg.Sources.Wiki)),
		Cache: mem,
		TTL:   cfg.Cache.TTL,
	}
	if cfg.Cache.Persist {
		opts.Persist = db
	}
	svc := story.New(opts)

	return &app{
		cfg:        cfg,
		logOpts:    logOpts,
		store:      db,
		cache:      mem,
		dispatcher: tools.New(svc, db),
	}, nil
}

func (a *app) Close(ctx context.Context) {
	a.cache.Close()
	if err := a.store.Close(ctx); err != nil {
		dl.Log().With("error", err).Warn("closing store")
	}
}

func sourceOptions(cfg *config.Config, src config.SourceConfig) sources.Options {
	return sources.Options{
		BaseURL:    src.BaseURL,
		Delay:      src.Delay,
		Timeout:    src.Timeout,
		UserAgent:  cfg.Server.UserAgent,
		Retries:    cfg.Retry.Count,
		RetryDelay: cfg.Retry.Delay,
	}
}

// logOptions writes to stderr; stdout carries the MCP stdio stream.
func logOptions(cfg config.LogConfig) (*dl.Options, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	opts := dl.DefaultOptions().
		SetLevel(level).
		SetTrimPrefix("loreweave/").
		SetOutput(os.Stderr)
	switch strings.ToLower(cfg.Format) {
	case "json":
		return opts.JSON(), nil
	case "", "text":
		return opts.Pretty(), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	if cfg.Database.IsPostgres() {
		db, err = postgres.New(ctx, cfg.Database.DSN)
	} else {
		db, err = sqlite.New(ctx, cfg.Database.DSN)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// call runs a catalog tool and prints its JSON result.
func (a *app) call(cmd *cobra.Command, name string, args map[string]any) error {
	result, err := a.dispatcher.Call(cmd.Context(), name, args)
	if err != nil {
		return err
	}
	for _, c := range result.Content {
		fmt.Fprintln(cmd.OutOrStdout(), c.Text)
	}
	return nil
}

// withApp builds the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(a)
}
