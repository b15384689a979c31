// Package selector tracks which API and endpoint of the catalog are active.
package selector

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/model"
)

// Query string keys understood by ResolveInitialSelection.
const (
	QueryAPI      = "api"
	QueryEndpoint = "endpoint"
)

var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrAPINotFound      = errors.New("api not found")
	ErrEmptyCatalog     = catalog.ErrEmptyCatalog
)

type Selection struct {
	APIID      string
	EndpointID string
}

// ResolveInitialSelection picks the starting API and endpoint. For each
// field an explicit id wins over the query parameter, which wins over the
// catalog's first entry. Ids that do not exist fall through to the next
// source; resolution never fails on a non-empty catalog. An empty catalog
// yields the zero Selection.
func ResolveInitialSelection(cat *model.Catalog, apiID, endpointID string, query url.Values) Selection {
	if cat == nil || len(cat.APIs) == 0 {
		return Selection{}
	}

	api := &cat.APIs[0]
	for _, id := range []string{apiID, query.Get(QueryAPI)} {
		if a, ok := cat.API(strings.TrimSpace(id)); ok {
			api = a
			break
		}
	}

	sel := Selection{APIID: api.ID}
	if len(api.Endpoints) == 0 {
		return sel
	}
	sel.EndpointID = api.Endpoints[0].ID
	for _, id := range []string{endpointID, query.Get(QueryEndpoint)} {
		if ep, ok := api.Endpoint(strings.TrimSpace(id)); ok {
			sel.EndpointID = ep.ID
			break
		}
	}
	return sel
}

// ParseQuery accepts "api=tx&endpoint=balance", with or without a leading
// "?" or a full URL around it.
func ParseQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", raw, err)
	}
	return q, nil
}

// Selector holds the active API/endpoint pair. There is always exactly one
// active endpoint and it always belongs to the active API.
// Selector is not safe for concurrent use.
type Selector struct {
	cat      *model.Catalog
	api      *model.APIConfig
	endpoint *model.EndpointConfig
}

// New creates a selector positioned at sel, resolved fail-soft against cat.
func New(cat *model.Catalog, sel Selection) (*Selector, error) {
	s := &Selector{}
	if err := s.Reset(cat, sel); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset swaps the catalog and re-resolves sel against it.
func (s *Selector) Reset(cat *model.Catalog, sel Selection) error {
	if cat == nil || len(cat.APIs) == 0 {
		return ErrEmptyCatalog
	}
	resolved := ResolveInitialSelection(cat, sel.APIID, sel.EndpointID, nil)
	api, _ := cat.API(resolved.APIID)
	ep, ok := api.Endpoint(resolved.EndpointID)
	if !ok {
		return fmt.Errorf("api %s: %w", api.ID, ErrEndpointNotFound)
	}

	s.cat = cat
	s.api = api
	s.endpoint = ep
	return nil
}

// SelectAPI switches to another API and activates its first endpoint.
// An unknown id returns ErrAPINotFound and leaves the selection unchanged.
func (s *Selector) SelectAPI(apiID string) (model.EndpointDescriptor, error) {
	api, ok := s.cat.API(apiID)
	if !ok {
		return model.EndpointDescriptor{}, fmt.Errorf("%s: %w", apiID, ErrAPINotFound)
	}
	if len(api.Endpoints) == 0 {
		return model.EndpointDescriptor{}, fmt.Errorf("api %s has no endpoints: %w", apiID, ErrEndpointNotFound)
	}

	s.api = api
	s.endpoint = &api.Endpoints[0]
	return s.Active(), nil
}

// SelectEndpoint activates an endpoint of the current API. An unknown id
// returns ErrEndpointNotFound and leaves the selection unchanged.
func (s *Selector) SelectEndpoint(endpointID string) (model.EndpointDescriptor, error) {
	ep, ok := s.api.Endpoint(endpointID)
	if !ok {
		return model.EndpointDescriptor{}, fmt.Errorf("%s/%s: %w", s.api.ID, endpointID, ErrEndpointNotFound)
	}

	s.endpoint = ep
	return s.Active(), nil
}

// Active returns the descriptor of the active endpoint.
func (s *Selector) Active() model.EndpointDescriptor {
	return model.Descriptor(s.api, s.endpoint)
}

func (s *Selector) Selection() Selection {
	return Selection{APIID: s.api.ID, EndpointID: s.endpoint.ID}
}

func (s *Selector) API() *model.APIConfig {
	return s.api
}

func (s *Selector) Endpoint() *model.EndpointConfig {
	return s.endpoint
}

func (s *Selector) Catalog() *model.Catalog {
	return s.cat
}
