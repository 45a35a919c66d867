package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitaan/mitaan/internal/config"
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/credstore"
	"github.com/mitaan/mitaan/internal/logging"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// app holds the services a command runs against.
type app struct {
	Config  *config.Config
	Dir     string
	Logger  *zap.Logger
	Store   credstore.Store
	Client  *contentapi.Client
	Cache   *querycache.Cache
	Console *console.Console

	closers []func() error
}

// openStore opens the credential store. Tests replace it.
var openStore = func(path string) (credstore.Store, func() error, error) {
	s, err := credstore.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// configOptions resolves config.Options from the persistent flags.
func configOptions(cmd *cobra.Command) config.Options {
	file, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("config-dir")
	envFile, _ := cmd.Flags().GetString("env-file")
	if dir == "" {
		dir = config.Dir()
	}
	return config.Options{File: file, Dir: dir, EnvFile: envFile, Flags: cmd.Flags()}
}

// openApp loads configuration and wires the client, cache and console.
func openApp(cmd *cobra.Command) (*app, error) {
	opts := configOptions(cmd)
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	a := &app{Config: cfg, Dir: opts.Dir, Logger: logger, closers: []func() error{closeLog}}
	version.CacheDir = opts.Dir

	store, closeStore, err := openStore(cfg.Store.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	clientOpts := []contentapi.Option{contentapi.WithLogger(logger.Named("api"))}
	if cfg.API.Timeout > 0 {
		clientOpts = append(clientOpts, contentapi.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}
	if n := cfg.API.MutationsPerMinute; n > 0 {
		limit := rate.Every(time.Minute / time.Duration(n))
		clientOpts = append(clientOpts, contentapi.WithMutationLimit(rate.NewLimiter(limit, max(n/6, 1))))
	}
	a.Client = contentapi.New(cfg.API.BaseURL, store, clientOpts...)

	a.Cache = querycache.New(
		querycache.WithLogger(logger.Named("cache")),
		querycache.WithDefaultStaleTime(cfg.Cache.StaleTime),
	)
	a.Console = console.New(registry.Default(), a.Client, a.Cache, console.Options{
		Author:          cfg.Console.DefaultAuthor,
		Language:        cfg.Console.Language,
		ToastDuration:   cfg.Console.ToastDuration,
		StaleTime:       cfg.Cache.StaleTime,
		SearchStaleTime: cfg.Cache.SearchStaleTime,
		SearchMinLength: cfg.Search.MinQueryLength,
		Logger:          logger.Named("console"),
	})

	logger.Debug("app ready",
		zap.String("api", cfg.API.BaseURL),
		zap.String("store", cfg.Store.Path),
		zap.String("version", versionStr))
	return a, nil
}

// Close releases everything openApp acquired, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// signalContext is cancelled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
