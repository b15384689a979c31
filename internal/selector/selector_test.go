package selector

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/model"
)

func TestResolveInitialSelection(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name       string
		apiID      string
		endpointID string
		query      url.Values
		want       Selection
	}{
		{
			name: "defaults to first api and endpoint",
			want: Selection{APIID: "text2sql", EndpointID: "health-check"},
		},
		{
			name:  "query selects api and endpoint",
			query: url.Values{"api": {"tx"}, "endpoint": {"balance"}},
			want:  Selection{APIID: "tx", EndpointID: "balance"},
		},
		{
			name:  "explicit wins over query",
			apiID: "ohlcv",
			query: url.Values{"api": {"tx"}, "endpoint": {"balance"}},
			want:  Selection{APIID: "ohlcv", EndpointID: "candle"},
		},
		{
			name:       "explicit endpoint wins over query endpoint",
			endpointID: "tx-list",
			query:      url.Values{"api": {"tx"}, "endpoint": {"balance"}},
			want:       Selection{APIID: "tx", EndpointID: "tx-list"},
		},
		{
			name:  "unknown api falls back to first",
			apiID: "nope",
			want:  Selection{APIID: "text2sql", EndpointID: "health-check"},
		},
		{
			name:  "unknown explicit api falls through to query",
			apiID: "nope",
			query: url.Values{"api": {"tx"}},
			want:  Selection{APIID: "tx", EndpointID: "tx-list"},
		},
		{
			name:       "unknown endpoint falls back to first of api",
			apiID:      "tx",
			endpointID: "nope",
			want:       Selection{APIID: "tx", EndpointID: "tx-list"},
		},
		{
			name:  "endpoint of another api is not found",
			query: url.Values{"api": {"tx"}, "endpoint": {"candle"}},
			want:  Selection{APIID: "tx", EndpointID: "tx-list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveInitialSelection(cat, tt.apiID, tt.endpointID, tt.query)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, Selection{}, ResolveInitialSelection(&model.Catalog{}, "tx", "", nil))
}

func TestParseQuery(t *testing.T) {
	for _, raw := range []string{
		"api=tx&endpoint=balance",
		"?api=tx&endpoint=balance",
		"https://docs.example.com/playground?api=tx&endpoint=balance#try",
	} {
		q, err := ParseQuery(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "tx", q.Get("api"))
		assert.Equal(t, "balance", q.Get("endpoint"))
	}

	_, err := ParseQuery("api=%zz")
	require.Error(t, err)
}

func TestSelector_SelectAPI(t *testing.T) {
	s, err := New(catalog.Default(), Selection{APIID: "tx", EndpointID: "balance"})
	require.NoError(t, err)

	d, err := s.SelectAPI("ohlcv")
	require.NoError(t, err)
	assert.Equal(t, "ohlcv", d.APIID)
	assert.Equal(t, "candle", d.EndpointID)
	assert.Equal(t, "https://api.hubble-rpc.xyz/candle/api/v1/sol/candle", d.URL())

	_, err = s.SelectAPI("missing")
	require.ErrorIs(t, err, ErrAPINotFound)
	assert.Equal(t, Selection{APIID: "ohlcv", EndpointID: "candle"}, s.Selection())
}

func TestSelector_SelectEndpoint(t *testing.T) {
	s, err := New(catalog.Default(), Selection{APIID: "tx"})
	require.NoError(t, err)
	assert.Equal(t, "tx-list", s.Active().EndpointID)

	d, err := s.SelectEndpoint("balance")
	require.NoError(t, err)
	assert.Equal(t, model.MethodPost, d.Method)
	assert.Equal(t, "HUBBLE-API-KEY", d.APIKeyHeaderName)

	// endpoints are scoped to the active api
	_, err = s.SelectEndpoint("candle")
	require.ErrorIs(t, err, ErrEndpointNotFound)
	assert.Equal(t, Selection{APIID: "tx", EndpointID: "balance"}, s.Selection())
	assert.Equal(t, s.API().ID, s.Active().APIID)
}

func TestSelector_Reset(t *testing.T) {
	s, err := New(catalog.Default(), Selection{APIID: "tx", EndpointID: "balance"})
	require.NoError(t, err)

	smaller := &model.Catalog{APIs: []model.APIConfig{{
		ID: "tx", BaseURL: "https://x.example.com", APIKeyHeader: "K",
		Endpoints: []model.EndpointConfig{{ID: "tx-list", Method: model.MethodPost, Path: "/tx"}},
	}}}
	require.NoError(t, s.Reset(smaller, s.Selection()))
	assert.Equal(t, Selection{APIID: "tx", EndpointID: "tx-list"}, s.Selection())

	require.ErrorIs(t, s.Reset(&model.Catalog{}, s.Selection()), ErrEmptyCatalog)
	assert.Equal(t, "tx-list", s.Selection().EndpointID)

	_, err = New(nil, Selection{})
	require.ErrorIs(t, err, ErrEmptyCatalog)
}
