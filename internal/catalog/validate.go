package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"hubbleplay/internal/model"
)

var ErrEmptyCatalog = errors.New("catalog has no APIs")

// Validate checks the structural rules every catalog must satisfy.
func Validate(cat *model.Catalog) error {
	if cat == nil || len(cat.APIs) == 0 {
		return ErrEmptyCatalog
	}

	apiIDs := make(map[string]bool)
	for i, api := range cat.APIs {
		if api.ID == "" {
			return fmt.Errorf("api at index %d has no id", i)
		}
		if apiIDs[api.ID] {
			return fmt.Errorf("duplicate api id: %s", api.ID)
		}
		apiIDs[api.ID] = true

		if err := validateAPI(&api); err != nil {
			return fmt.Errorf("api %s: %w", api.ID, err)
		}
	}
	return nil
}

func validateAPI(api *model.APIConfig) error {
	if api.BaseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("baseUrl must be an absolute http(s) URL, got %q", api.BaseURL)
	}
	if api.APIKeyHeader == "" {
		return fmt.Errorf("apiKeyHeader is required")
	}
	if len(api.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint must be defined")
	}

	endpointIDs := make(map[string]bool)
	for i, ep := range api.Endpoints {
		if ep.ID == "" {
			return fmt.Errorf("endpoint at index %d has no id", i)
		}
		if endpointIDs[ep.ID] {
			return fmt.Errorf("duplicate endpoint id: %s", ep.ID)
		}
		endpointIDs[ep.ID] = true

		if !ep.Method.Valid() {
			return fmt.Errorf("endpoint %s: unsupported method %q", ep.ID, ep.Method)
		}
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("endpoint %s: path must start with /", ep.ID)
		}
	}
	return nil
}
