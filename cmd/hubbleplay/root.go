package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/config"
	"hubbleplay/internal/metrics"
	"hubbleplay/internal/model"
	"hubbleplay/internal/playground"
	"hubbleplay/internal/ui"
)

const version = "0.1.0"

var (
	configPath   string
	catalogPath  string
	openapiSpecs []string
	logLevel     string

	apiID      string
	endpointID string
	linkQuery  string
	apiKey     string
)

var rootCmd = &cobra.Command{
	Use:   "hubbleplay",
	Short: "hubbleplay - terminal playground for the Hubble APIs",
	Long: `hubbleplay lets you pick a Hubble API endpoint, edit the request and send
it, with live output for server-sent event streams.

Examples:
  hubbleplay                                   # open the playground
  hubbleplay --api tx --endpoint balance       # start on an endpoint
  hubbleplay --query '?api=ohlcv&endpoint=candle'
  hubbleplay --openapi ./agent.yaml            # add an API from OpenAPI
  hubbleplay send --api tx --endpoint balance  # one request, no TUI`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (.yaml, .json or .toml; default $"+config.EnvConfig+")")
	pf.StringVar(&catalogPath, "catalog", "", "catalog file (default: built-in Hubble catalog)")
	pf.StringArrayVar(&openapiSpecs, "openapi", nil, "OpenAPI document (file or URL) to add as an API, repeatable")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	pf.StringVar(&apiID, "api", "", "API to select")
	pf.StringVar(&endpointID, "endpoint", "", "endpoint to select")
	pf.StringVar(&linkQuery, "query", "", `shared link query, e.g. "?api=tx&endpoint=balance"`)
	pf.StringVar(&apiKey, "api-key", os.Getenv(config.EnvAPIKey), "API key (default $"+config.EnvAPIKey+")")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics, log)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Stop(stopCtx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", srv.Addr(), cfg.Metrics.Path)
	}

	extend, err := openAPIExtension(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		cat     *model.Catalog
		watcher *catalog.Watcher
	)
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err = catalog.NewWatcher(cfg.Catalog.Path, log, extend)
		if err != nil {
			return err
		}
		cat = watcher.Get()
	} else if cat, err = loadCatalog(cfg, extend); err != nil {
		return err
	}

	session, err := newSession(cfg, cat, log)
	if err != nil {
		return err
	}
	defer session.Close()

	if watcher != nil {
		watcher.OnReload(func(c *model.Catalog) {
			if err := session.ReplaceCatalog(c); err != nil {
				log.Warnw("reloaded catalog rejected", "error", err)
			}
		})
		if err := watcher.Watch(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	app := ui.NewApp(session, ui.Options{Editor: cfg.EditorCommand(), Log: log})
	return app.Run()
}

// sessionOptions gathers the selection and credential flags.
func sessionOptions() (playground.Options, error) {
	opts := playground.Options{APIID: apiID, EndpointID: endpointID, APIKey: apiKey}
	if linkQuery != "" {
		q, err := parseLinkQuery(linkQuery)
		if err != nil {
			return opts, err
		}
		opts.Query = q
	}
	return opts, nil
}
