// Package catalog loads, validates and watches the list of APIs the
// playground can call.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"hubbleplay/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Default returns the built-in Hubble catalog (Text2SQL, Transaction/Balance, OHLCV).
// Every call returns a fresh copy.
func Default() *model.Catalog {
	cat, err := Parse(defaultCatalog, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return cat
}

// LoadFromFile loads a catalog from a file, auto-detecting the format by extension.
// Supported formats: .yaml, .yml, .json, .toml
func LoadFromFile(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a catalog document. ext selects the format
// the same way LoadFromFile does.
func Parse(data []byte, ext string) (*model.Catalog, error) {
	var cat model.Catalog

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cat); err != nil {
			return nil, fmt.Errorf("failed to parse TOML catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}

	normalize(&cat)

	if err := Validate(&cat); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &cat, nil
}

// Merge appends the APIs of extra to base. APIs whose id is already present
// in base replace the existing entry in place.
func Merge(base *model.Catalog, extra ...model.APIConfig) *model.Catalog {
	out := &model.Catalog{}
	if base != nil {
		out.APIs = append(out.APIs, base.APIs...)
	}
	for _, api := range extra {
		replaced := false
		for i := range out.APIs {
			if out.APIs[i].ID == api.ID {
				out.APIs[i] = api
				replaced = true
				break
			}
		}
		if !replaced {
			out.APIs = append(out.APIs, api)
		}
	}
	return out
}

func normalize(cat *model.Catalog) {
	for i := range cat.APIs {
		api := &cat.APIs[i]
		api.ID = strings.TrimSpace(api.ID)
		api.BaseURL = strings.TrimSpace(api.BaseURL)
		api.APIKeyHeader = strings.TrimSpace(api.APIKeyHeader)
		if api.Label == "" {
			api.Label = api.ID
		}
		for j := range api.Endpoints {
			ep := &api.Endpoints[j]
			ep.ID = strings.TrimSpace(ep.ID)
			if m, ok := model.ParseMethod(string(ep.Method)); ok {
				ep.Method = m
			}
			if ep.Label == "" {
				ep.Label = string(ep.Method) + " " + ep.Path
			}
		}
	}
}
