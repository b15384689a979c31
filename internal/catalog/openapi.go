package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"hubbleplay/internal/model"
)

const (
	defaultOpenAPITimeout = 10 * time.Second
	defaultAPIKeyHeader   = "HUBBLE-API-KEY"
)

// OpenAPIOptions controls how an OpenAPI document is turned into an API entry.
type OpenAPIOptions struct {
	// ID of the resulting API. Defaults to a slug of the document title.
	ID    string
	Label string
	// BaseURL overrides the document's first server URL.
	BaseURL      string
	APIKeyHeader string
	// HTTPClient fetches remote documents. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// FromOpenAPI imports an OpenAPI 3 document from a local file or an
// http(s) URL as a catalog API.
func FromOpenAPI(ctx context.Context, source string, opts OpenAPIOptions) (model.APIConfig, error) {
	doc, err := loadOpenAPI(ctx, source, opts.HTTPClient)
	if err != nil {
		return model.APIConfig{}, fmt.Errorf("load openapi %s: %w", source, err)
	}
	return APIFromOpenAPI(doc, source, opts)
}

func loadOpenAPI(ctx context.Context, source string, client *http.Client) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if u, perr := url.Parse(source); perr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		doc, err = fetchOpenAPI(ctx, loader, source, client)
	} else {
		doc, err = loader.LoadFromFile(strings.TrimPrefix(source, "@"))
	}
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func fetchOpenAPI(ctx context.Context, loader *openapi3.Loader, source string, client *http.Client) (*openapi3.T, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultOpenAPITimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", source, resp.Status)
	}

	return loader.LoadFromIoReader(resp.Body)
}

// APIFromOpenAPI converts an already loaded document.
func APIFromOpenAPI(doc *openapi3.T, source string, opts OpenAPIOptions) (model.APIConfig, error) {
	api := model.APIConfig{
		ID:           opts.ID,
		Label:        opts.Label,
		BaseURL:      strings.TrimRight(opts.BaseURL, "/"),
		APIKeyHeader: opts.APIKeyHeader,
	}

	if doc.Info != nil {
		if api.Label == "" {
			api.Label = strings.TrimSpace(doc.Info.Title)
		}
		if api.ID == "" {
			api.ID = slug(doc.Info.Title)
		}
	}
	if api.ID == "" {
		api.ID = slug(source)
	}
	if api.Label == "" {
		api.Label = api.ID
	}
	if api.APIKeyHeader == "" {
		api.APIKeyHeader = apiKeyHeaderFromSecurity(doc)
	}
	if api.BaseURL == "" && len(doc.Servers) > 0 && doc.Servers[0] != nil {
		api.BaseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	api.Endpoints = extractEndpoints(doc)

	cat := &model.Catalog{APIs: []model.APIConfig{api}}
	normalize(cat)
	api = cat.APIs[0]
	if err := validateAPI(&api); err != nil {
		return model.APIConfig{}, fmt.Errorf("api %s: %w", api.ID, err)
	}
	return api, nil
}

func extractEndpoints(doc *openapi3.T) []model.EndpointConfig {
	var out []model.EndpointConfig
	if doc == nil || doc.Paths == nil {
		return out
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	seen := map[string]int{}
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}

		addOp := func(method model.HTTPMethod, op *openapi3.Operation) {
			if op == nil {
				return
			}

			id := strings.TrimSpace(op.OperationID)
			if id == "" {
				id = slug(string(method) + " " + path)
			}
			if n := seen[id]; n > 0 {
				id = id + "-" + strconv.Itoa(n+1)
			}
			seen[id]++

			ep := model.EndpointConfig{
				ID:          id,
				Label:       string(method) + " " + path,
				Method:      method,
				Path:        path,
				Description: firstNonEmpty(op.Summary, op.Description),
			}

			params := append(openapi3.Parameters{}, item.Parameters...)
			params = append(params, op.Parameters...)
			for _, p := range params {
				if p == nil || p.Value == nil {
					continue
				}
				ep.RequestParameters = append(ep.RequestParameters, model.RequestParameter{
					Name:         p.Value.Name,
					Type:         schemaType(p.Value.Schema),
					Required:     p.Value.Required,
					Description:  strings.TrimSpace(p.Value.Description),
					DefaultValue: schemaDefault(p.Value.Schema),
				})
			}

			if schema, mt := jsonBody(op); schema != nil || mt != nil {
				ep.SampleBody = sampleBody(mt, schema)
				if schema != nil {
					ep.SupportsStream = hasBooleanStream(schema)
					ep.RequestParameters = append(ep.RequestParameters, bodyParameters(schema)...)
				}
			}

			ep.Responses = extractResponses(op)

			out = append(out, ep)
		}

		addOp(model.MethodGet, item.Get)
		addOp(model.MethodPost, item.Post)
		addOp(model.MethodPut, item.Put)
		addOp(model.MethodPatch, item.Patch)
		addOp(model.MethodDelete, item.Delete)
	}

	return out
}

func jsonBody(op *openapi3.Operation) (*openapi3.Schema, *openapi3.MediaType) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, nil
	}
	mt := op.RequestBody.Value.Content.Get("application/json")
	if mt == nil {
		return nil, nil
	}
	if mt.Schema == nil || mt.Schema.Value == nil {
		return nil, mt
	}
	return mt.Schema.Value, mt
}

// sampleBody prefers an explicit media type example, then the schema
// example, then an object assembled from property examples and defaults.
func sampleBody(mt *openapi3.MediaType, s *openapi3.Schema) model.Payload {
	if mt != nil {
		if mt.Example != nil {
			return model.PayloadOf(mt.Example)
		}
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ex := mt.Examples[name]; ex != nil && ex.Value != nil && ex.Value.Value != nil {
				return model.PayloadOf(ex.Value.Value)
			}
		}
	}
	if s == nil {
		return model.Payload{}
	}
	if s.Example != nil {
		return model.PayloadOf(s.Example)
	}
	if s.Type == nil || !s.Type.Is("object") || len(s.Properties) == 0 {
		return model.Payload{}
	}

	obj := map[string]any{}
	for name, prop := range s.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		switch {
		case prop.Value.Example != nil:
			obj[name] = prop.Value.Example
		case prop.Value.Default != nil:
			obj[name] = prop.Value.Default
		}
	}
	if len(obj) == 0 {
		return model.Payload{}
	}
	return model.PayloadOf(obj)
}

func hasBooleanStream(s *openapi3.Schema) bool {
	prop, ok := s.Properties["stream"]
	if !ok || prop == nil || prop.Value == nil || prop.Value.Type == nil {
		return false
	}
	return prop.Value.Type.Is("boolean")
}

func bodyParameters(s *openapi3.Schema) []model.RequestParameter {
	if s.Type == nil || !s.Type.Is("object") {
		return nil
	}

	required := map[string]bool{}
	for _, name := range s.Required {
		required[name] = true
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []model.RequestParameter
	for _, name := range names {
		prop := s.Properties[name]
		p := model.RequestParameter{
			Name:         name,
			Type:         schemaType(prop),
			Required:     required[name],
			DefaultValue: schemaDefault(prop),
		}
		if prop != nil && prop.Value != nil {
			p.Description = strings.TrimSpace(prop.Value.Description)
		}
		out = append(out, p)
	}
	return out
}

func extractResponses(op *openapi3.Operation) []model.ResponseExample {
	if op.Responses == nil {
		return nil
	}

	responses := op.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var out []model.ResponseExample
	for _, code := range codes {
		status, err := strconv.Atoi(code)
		if err != nil {
			// "default" and "2XX" style keys have no single status code
			continue
		}
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		ex := model.ResponseExample{StatusCode: status}
		if ref.Value.Description != nil {
			ex.Description = strings.TrimSpace(*ref.Value.Description)
		}
		if mt := ref.Value.Content.Get("application/json"); mt != nil {
			var schema *openapi3.Schema
			if mt.Schema != nil {
				schema = mt.Schema.Value
			}
			ex.Body = sampleBody(mt, schema)
		}
		out = append(out, ex)
	}
	return out
}

func apiKeyHeaderFromSecurity(doc *openapi3.T) string {
	if doc.Components == nil {
		return defaultAPIKeyHeader
	}
	names := make([]string, 0, len(doc.Components.SecuritySchemes))
	for name := range doc.Components.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := doc.Components.SecuritySchemes[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if ref.Value.Type == "apiKey" && ref.Value.In == "header" && ref.Value.Name != "" {
			return ref.Value.Name
		}
	}
	return defaultAPIKeyHeader
}

func schemaType(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return "unknown"
	}
	for _, t := range []string{"string", "integer", "number", "boolean", "array", "object"} {
		if ref.Value.Type.Is(t) {
			return t
		}
	}
	return "unknown"
}

func schemaDefault(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Default == nil {
		return ""
	}
	if s, ok := ref.Value.Default.(string); ok {
		return s
	}
	return model.PayloadOf(ref.Value.Default).String()
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
