// Package app assembles the client: logging, device storage, the API
// client, the session and the query layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/planet/internal/querycache"
	"github.com/aussiebroadwan/planet/internal/queries"
	"github.com/aussiebroadwan/planet/internal/storage"
	"github.com/aussiebroadwan/planet/internal/storage/drivers/memory"
	"github.com/aussiebroadwan/planet/internal/storage/drivers/sqlite"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application holds every client dependency. Create it once per process.
type Application struct {
	cfg    Config
	Logger *slog.Logger

	Store   storage.Store
	Client  *planetsdk.Client
	Session *planetsdk.Session
	Cache   *querycache.Cache
	Queries *queries.Queries
}

// Option customises New.
type Option func(*options)

type options struct {
	logOutput io.Writer
	store     storage.Store
	clientOps []planetsdk.Option
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithStore uses st instead of opening one from the config.
func WithStore(st storage.Store) Option {
	return func(o *options) { o.store = st }
}

// WithClientOptions passes extra options to planetsdk.NewClient.
func WithClientOptions(opts ...planetsdk.Option) Option {
	return func(o *options) { o.clientOps = append(o.clientOps, opts...) }
}

// New initializes the application and restores the stored session.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg: cfg,
		Logger: slogx.New(slogx.Config{
			Service: "planet",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.logOutput,
		}),
	}

	app.Store = o.store
	if app.Store == nil {
		st, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		app.Store = st
	}

	clientOpts := append([]planetsdk.Option{
		planetsdk.WithTimeout(cfg.RequestTimeout),
		planetsdk.WithLogger(app.Logger),
	}, o.clientOps...)
	app.Client = planetsdk.NewClient(cfg.BaseURL, app.Store, clientOpts...)

	session, err := app.Client.RestoreSession(ctx)
	if err != nil {
		_ = app.Store.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	app.Session = session

	cacheCfg := querycache.DefaultConfig()
	cacheCfg.Logger = app.Logger
	cache, err := querycache.New(cacheCfg)
	if err != nil {
		_ = app.Store.Close()
		return nil, err
	}
	app.Cache = cache
	app.Queries = queries.New(app.Client, app.Session, app.Cache)

	app.Logger.Debug("planet client ready",
		"base_url", cfg.BaseURL,
		"storage", cfg.StorageMode,
		"signed_in", session.IsSignedIn(),
	)
	return app, nil
}

func openStore(cfg Config) (storage.Store, error) {
	switch cfg.StorageMode {
	case storage.ModeEphemeral:
		return memory.NewStore(), nil
	default:
		st, err := sqlite.Open(cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open device storage: %w", err)
		}
		return st, nil
	}
}

// Config returns the configuration the application was built with.
func (app *Application) Config() Config { return app.cfg }

// Close releases device storage.
func (app *Application) Close() error {
	if app.Store == nil {
		return nil
	}
	if err := app.Store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return fmt.Errorf("close device storage: %w", err)
	}
	return nil
}
