package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/ebosman/buurtkrant/pkg/aggregator"
	"github.com/ebosman/buurtkrant/pkg/cache"
	"github.com/ebosman/buurtkrant/pkg/config"
	"github.com/ebosman/buurtkrant/pkg/feed"
	"github.com/ebosman/buurtkrant/pkg/relevance"
	"github.com/ebosman/buurtkrant/pkg/service"
	"github.com/ebosman/buurtkrant/pkg/sources"
	"github.com/ebosman/buurtkrant/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" description:"config file path"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	log.Printf("[INFO] starting buurtkrant version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] server failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires the pipeline together and serves until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := sources.Load(cfg.Sources.File)
	if err != nil {
		return fmt.Errorf("load source registry: %w", err)
	}

	fetcher := feed.NewFetcher(feed.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		ProxyURL:  cfg.Fetch.ProxyURL,
		UserAgent: cfg.Fetch.UserAgent,
		Attempts:  cfg.Fetch.Attempts,
		Thumbnailer: feed.NewThumbnailer(feed.ThumbnailerConfig{
			Timeout:   cfg.Thumbnail.Timeout,
			ProxyURL:  cfg.Fetch.ProxyURL,
			UserAgent: cfg.Fetch.UserAgent,
			MinPixels: cfg.Thumbnail.MinPixels,
		}),
	})

	store, err := makeStore(cfg)
	if err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}

	agg := aggregator.New(registry, fetcher, cfg.Fetch.MaxWorkers)
	engine := relevance.NewEngine(cfg.Scoring, registry)
	articleCache := cache.New(store, cfg.Cache.TTL)
	news := service.NewNews(agg, engine, articleCache)

	srv := server.New(cfg, news, registry, revision, opts.Debug)
	return srv.Run(ctx)
}

// loadConfig reads the config file, falling back to defaults when no file is
// given. The listen flag overrides the file.
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

// makeStore creates the configured cache backend
func makeStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "sqlite" {
		return cache.NewSQLiteStore(cfg.Cache.DSN)
	}
	return cache.NewMemoryStore(), nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
