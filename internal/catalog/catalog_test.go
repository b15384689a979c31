package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/model"
)

func TestDefault(t *testing.T) {
	cat := Default()
	require.NoError(t, Validate(cat))

	var ids []string
	for _, api := range cat.APIs {
		ids = append(ids, api.ID)
		assert.Equal(t, "HUBBLE-API-KEY", api.APIKeyHeader)
	}
	assert.Equal(t, []string{"text2sql", "tx", "ohlcv"}, ids)

	tx, ok := cat.API("tx")
	require.True(t, ok)
	balance, ok := tx.Endpoint("balance")
	require.True(t, ok)
	assert.Equal(t, model.MethodPost, balance.Method)
	assert.Equal(t, "https://api.hubble-rpc.xyz/balance/api/v1/sol/balance", model.Descriptor(tx, balance).URL())
	assert.Equal(t,
		`{"wallet":"FZ1t8TZtx7VSCQdBsxvFJiezj9paUBF6Ub7RKA2eTGyE","token":"pumpCmXqMfrsAkQ5r49WcJnRayYRqmXz6ae8H7H9Dfn"}`,
		balance.SampleBody.String())
	assert.Len(t, balance.Responses, 5)

	t2s, _ := cat.API("text2sql")
	health, ok := t2s.Endpoint("health-check")
	require.True(t, ok)
	assert.True(t, health.SampleBody.IsZero())
	assert.False(t, health.SupportsStream)

	conv, ok := t2s.Endpoint("text2sql-conversion")
	require.True(t, ok)
	assert.True(t, conv.SupportsStream)
	assert.Equal(t, `{"query":"Show me the top 10 token trades by volume today","stream":false}`, conv.SampleBody.String())

	// fresh copy per call
	cat.APIs[0].ID = "changed"
	assert.Equal(t, "text2sql", Default().APIs[0].ID)
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantBody string
	}{
		{name: "json", file: "testdata/catalog.json", wantBody: `{"term": "sol", "limit": 5, "stream": true}`},
		{name: "toml", file: "testdata/catalog.toml", wantBody: `{"limit":5,"term":"sol"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := LoadFromFile(tt.file)
			require.NoError(t, err)
			require.Len(t, cat.APIs, 1)

			api := cat.APIs[0]
			assert.Equal(t, "demo", api.ID)
			require.Len(t, api.Endpoints, 2)

			search := api.Endpoints[0]
			assert.Equal(t, model.MethodPost, search.Method)
			assert.True(t, search.SupportsStream)
			assert.Equal(t, tt.wantBody, search.SampleBody.String())

			ping := api.Endpoints[1]
			assert.Equal(t, "GET /ping", ping.Label)
			assert.True(t, ping.SampleBody.IsZero())
		})
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile("testdata/duplicate.yaml")
	require.ErrorContains(t, err, "duplicate endpoint id: a")

	_, err = LoadFromFile("testdata/missing.yaml")
	require.ErrorContains(t, err, "failed to read catalog file")

	path := filepath.Join(t.TempDir(), "catalog.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, err = LoadFromFile(path)
	require.ErrorContains(t, err, "unsupported catalog file format")
}

func TestValidate(t *testing.T) {
	valid := func() *model.Catalog {
		return &model.Catalog{APIs: []model.APIConfig{{
			ID:           "a",
			BaseURL:      "https://a.example.com",
			APIKeyHeader: "K",
			Endpoints:    []model.EndpointConfig{{ID: "e", Method: model.MethodGet, Path: "/e"}},
		}}}
	}

	tests := []struct {
		name    string
		mutate  func(c *model.Catalog)
		wantErr string
	}{
		{name: "valid", mutate: func(*model.Catalog) {}},
		{name: "empty", mutate: func(c *model.Catalog) { c.APIs = nil }, wantErr: ErrEmptyCatalog.Error()},
		{name: "duplicate api", mutate: func(c *model.Catalog) { c.APIs = append(c.APIs, c.APIs[0]) }, wantErr: "duplicate api id"},
		{name: "relative base url", mutate: func(c *model.Catalog) { c.APIs[0].BaseURL = "/api" }, wantErr: "absolute http(s) URL"},
		{name: "missing header", mutate: func(c *model.Catalog) { c.APIs[0].APIKeyHeader = "" }, wantErr: "apiKeyHeader is required"},
		{name: "no endpoints", mutate: func(c *model.Catalog) { c.APIs[0].Endpoints = nil }, wantErr: "at least one endpoint"},
		{name: "bad method", mutate: func(c *model.Catalog) { c.APIs[0].Endpoints[0].Method = "TRACE" }, wantErr: "unsupported method"},
		{name: "bad path", mutate: func(c *model.Catalog) { c.APIs[0].Endpoints[0].Path = "e" }, wantErr: "path must start with /"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	merged := Merge(base,
		model.APIConfig{ID: "tx", Label: "Replaced"},
		model.APIConfig{ID: "agent", Label: "Agent"},
	)

	require.Len(t, merged.APIs, 4)
	assert.Equal(t, "Replaced", merged.APIs[1].Label)
	assert.Equal(t, "agent", merged.APIs[3].ID)
	assert.Equal(t, "Transaction/Balance", base.APIs[1].Label)
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"apiKeyHeader"`)
	assert.Contains(t, s, `"supportsStream"`)
	assert.Contains(t, s, `"PATCH"`)
	assert.Contains(t, s, "Arbitrary JSON value")
}
