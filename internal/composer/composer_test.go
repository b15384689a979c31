package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/model"
)

func TestPretty(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "json string is re-indented keeping key order",
			in:   `{"b":1,"a":[1,2]}`,
			want: "{\n  \"b\": 1,\n  \"a\": [\n    1,\n    2\n  ]\n}",
		},
		{
			name: "non json string is returned unchanged",
			in:   "data: hello\n",
			want: "data: hello\n",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
		{
			name: "structured value",
			in:   map[string]any{"stream": true},
			want: "{\n  \"stream\": true\n}",
		},
		{
			name: "html is not escaped",
			in:   []string{"<div>"},
			want: "[\n  \"<div>\"\n]",
		},
		{
			name: "payload",
			in:   model.NewPayload([]byte(`{"symbol":"SOL","page":1}`)),
			want: "{\n  \"symbol\": \"SOL\",\n  \"page\": 1\n}",
		},
		{
			name: "absent payload",
			in:   model.Payload{},
			want: "",
		},
		{
			name: "bytes",
			in:   []byte(" 42 "),
			want: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pretty(tt.in))
		})
	}
}

func TestPretty_Idempotent(t *testing.T) {
	for _, in := range []string{
		`{"query":"Show me the top 10 token trades by volume today","stream":false}`,
		`[1,{"a":{"b":null}},"x"]`,
		`"just a string"`,
		`{}`,
		`not json`,
	} {
		once := Pretty(in)
		assert.Equal(t, once, Pretty(once), in)
	}
}

func TestOnEndpointChanged(t *testing.T) {
	s := New()
	s.HeadersText = "{\n  \"X-Trace\": \"1\"\n}"
	s.APIKey = "k"

	s.OnEndpointChanged(model.EndpointDescriptor{
		Method:     model.MethodPost,
		BaseURL:    "https://api.hubble-rpc.xyz",
		Path:       "/balance/api/v1/sol/balance",
		SampleBody: model.NewPayload([]byte(`{"wallet":"w","token":"t"}`)),
	})
	assert.Equal(t, "https://api.hubble-rpc.xyz/balance/api/v1/sol/balance", s.URL)
	assert.Equal(t, model.MethodPost, s.Method)
	assert.Equal(t, "{\n  \"wallet\": \"w\",\n  \"token\": \"t\"\n}", s.BodyText)
	assert.Equal(t, "{\n  \"X-Trace\": \"1\"\n}", s.HeadersText)
	assert.Equal(t, "k", s.APIKey)

	s.OnEndpointChanged(model.EndpointDescriptor{Method: model.MethodGet, BaseURL: "https://a", Path: "/status"})
	assert.Equal(t, "", s.BodyText)
	assert.Equal(t, model.MethodGet, s.Method)
}

func TestOnAuthChanged(t *testing.T) {
	tests := []struct {
		name    string
		headers string
		key     string
		header  string
		want    string
	}{
		{
			name:    "adds key to empty object",
			headers: "{}",
			key:     "secret123",
			header:  "HUBBLE-API-KEY",
			want:    "{\n  \"HUBBLE-API-KEY\": \"secret123\"\n}",
		},
		{
			name:    "keeps other entries and their order",
			headers: `{"X-B":"2","HUBBLE-API-KEY":"old","X-A":1}`,
			key:     "new",
			header:  "HUBBLE-API-KEY",
			want:    "{\n  \"X-B\": \"2\",\n  \"HUBBLE-API-KEY\": \"new\",\n  \"X-A\": 1\n}",
		},
		{
			name:    "empty key removes entry",
			headers: `{"HUBBLE-API-KEY":"old","X-A":"1"}`,
			key:     "",
			header:  "HUBBLE-API-KEY",
			want:    "{\n  \"X-A\": \"1\"\n}",
		},
		{
			name:    "malformed headers become empty object",
			headers: `{"X-A": `,
			key:     "k",
			header:  "HUBBLE-API-KEY",
			want:    "{\n  \"HUBBLE-API-KEY\": \"k\"\n}",
		},
		{
			name:    "non object headers become empty object",
			headers: `["x"]`,
			key:     "",
			header:  "HUBBLE-API-KEY",
			want:    "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.HeadersText = tt.headers
			s.OnAuthChanged(tt.key, tt.header)
			assert.Equal(t, tt.want, s.HeadersText)
			assert.Equal(t, tt.key, s.APIKey)
		})
	}
}

func TestOnAuthChanged_HeaderRename(t *testing.T) {
	s := New()
	s.OnAuthChanged("k", "HUBBLE-API-KEY")
	s.HeadersText = `{"HUBBLE-API-KEY":"k","X-A":"1"}`

	s.OnAuthChanged("k", "X-API-KEY")
	assert.Equal(t, "{\n  \"X-A\": \"1\",\n  \"X-API-KEY\": \"k\"\n}", s.HeadersText)

	// only the previous auth entry goes; the rest keep order and values
	s.HeadersText = `{"X-0":"a","X-API-KEY":"k","X-A":"1"}`
	s.OnAuthChanged("k2", "HUBBLE-API-KEY")
	assert.Equal(t, "{\n  \"X-0\": \"a\",\n  \"X-A\": \"1\",\n  \"HUBBLE-API-KEY\": \"k2\"\n}", s.HeadersText)
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders(`{"A":"x","B":2,"C":{"d":true},"A":"y"}`)
	require.NoError(t, err)
	assert.Equal(t, []Header{
		{Name: "A", Value: "y"},
		{Name: "B", Value: "2"},
		{Name: "C", Value: `{"d":true}`},
	}, h)

	h, err = ParseHeaders("  ")
	require.NoError(t, err)
	assert.Empty(t, h)

	for _, bad := range []string{`{`, `[]`, `"x"`, `{"a":1} {}`, `{1:2}`} {
		_, err := ParseHeaders(bad)
		assert.Error(t, err, bad)
	}
}

func TestSetHeader(t *testing.T) {
	s := New()
	s.HeadersText = `{"A":"1","B":"2"}`

	require.NoError(t, s.SetHeader("A", "x"))
	require.NoError(t, s.SetHeader("C", "3"))
	assert.Equal(t, "{\n  \"A\": \"x\",\n  \"B\": \"2\",\n  \"C\": \"3\"\n}", s.HeadersText)

	s.HeadersText = "{oops"
	require.Error(t, s.SetHeader("A", "x"))
	assert.Equal(t, "{oops", s.HeadersText)
}
