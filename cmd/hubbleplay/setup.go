package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/config"
	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/logger"
	"hubbleplay/internal/model"
	"hubbleplay/internal/playground"
	"hubbleplay/internal/selector"
)

// loadConfig reads the config file and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(logLevel))
	}
	for _, spec := range openapiSpecs {
		cfg.Catalog.OpenAPI = append(cfg.Catalog.OpenAPI, config.OpenAPISource{Spec: spec})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The TUI owns the terminal, so it
// logs to logging.file or nowhere; other commands log to stderr.
func newLogger(cfg *config.Config, tui bool) (*logger.Logger, error) {
	var outputs []string
	if tui {
		if cfg.Logging.File == "" {
			return logger.NewNopLogger(), nil
		}
		outputs = append(outputs, cfg.Logging.File)
	}
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Development, outputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// openAPIExtension imports every configured OpenAPI document once and
// returns a function that merges them into a catalog.
func openAPIExtension(ctx context.Context, cfg *config.Config) (func(*model.Catalog) *model.Catalog, error) {
	var extra []model.APIConfig
	for _, src := range cfg.Catalog.OpenAPI {
		api, err := catalog.FromOpenAPI(ctx, src.Spec, catalog.OpenAPIOptions{
			ID:           src.ID,
			Label:        src.Label,
			BaseURL:      src.BaseURL,
			APIKeyHeader: src.APIKeyHeader,
		})
		if err != nil {
			return nil, err
		}
		extra = append(extra, api)
	}

	return func(cat *model.Catalog) *model.Catalog {
		if len(extra) == 0 {
			return cat
		}
		return catalog.Merge(cat, extra...)
	}, nil
}

func loadCatalog(cfg *config.Config, extend func(*model.Catalog) *model.Catalog) (*model.Catalog, error) {
	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		var err error
		if cat, err = catalog.LoadFromFile(cfg.Catalog.Path); err != nil {
			return nil, err
		}
	}
	return extend(cat), nil
}

func newExecutor(cfg *config.Config, log *logger.Logger) *httpclient.Executor {
	client := httpclient.NewClient(cfg.HTTP.ResponseHeaderTimeout.Duration)
	return httpclient.NewExecutor(client, log, httpclient.WithUserAgent(cfg.HTTP.UserAgent))
}

func newSession(cfg *config.Config, cat *model.Catalog, log *logger.Logger) (*playground.Session, error) {
	opts, err := sessionOptions()
	if err != nil {
		return nil, err
	}
	return playground.NewSession(cat, opts, newExecutor(cfg, log), log)
}

func parseLinkQuery(raw string) (url.Values, error) {
	return selector.ParseQuery(raw)
}
