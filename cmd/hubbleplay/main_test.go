package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/config"
	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/model"
)

func TestReadBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n"), 0o600))

	tests := []struct {
		name    string
		arg     string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "literal", arg: `{"x":true}`, want: `{"x":true}`},
		{name: "file", arg: "@" + path, want: `{"a":1}`},
		{name: "stdin", arg: "@-", stdin: "piped\n\n", want: "piped"},
		{name: "missing file", arg: "@" + filepath.Join(dir, "nope"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readBody(tt.arg, strings.NewReader(tt.stdin))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHeaderFlag(t *testing.T) {
	name, value, err := parseHeaderFlag("X-Trace = 1")
	require.NoError(t, err)
	assert.Equal(t, "X-Trace", name)
	assert.Equal(t, "1", value)

	_, value, err = parseHeaderFlag("X-Empty=")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	for _, bad := range []string{"novalue", "=x", ""} {
		_, _, err := parseHeaderFlag(bad)
		assert.Error(t, err, bad)
	}
}

func TestExchangePrinter_Stream(t *testing.T) {
	var out, meta bytes.Buffer
	p := &exchangePrinter{out: &out, meta: &meta, showHeaders: true}

	p.onResult(httpclient.Result{State: httpclient.StateSending})
	assert.Empty(t, meta.String())

	streaming := httpclient.Result{
		State:      httpclient.StateStreaming,
		StatusCode: 200,
		StatusLine: "200 OK · 12 ms",
		Headers:    []string{"content-type: text/event-stream"},
	}
	for _, body := range []string{"", "data: a\n", "data: a\ndata: b\n"} {
		streaming.Body = body
		p.onResult(streaming)
	}
	assert.Equal(t, "data: a\ndata: b\n", out.String())

	final := streaming
	final.State = httpclient.StateComplete
	require.NoError(t, p.finish(final))

	assert.Equal(t, "data: a\ndata: b\n", out.String())
	assert.Equal(t, 1, strings.Count(meta.String(), "200 OK · 12 ms"))
	assert.Contains(t, meta.String(), "content-type: text/event-stream")
}

func TestExchangePrinter_Failure(t *testing.T) {
	var out, meta bytes.Buffer
	p := &exchangePrinter{out: &out, meta: &meta}

	err := p.finish(httpclient.Result{State: httpclient.StateFailed, Body: "Headers is not valid JSON"})
	require.ErrorIs(t, err, errExchangeFailed)
	assert.Empty(t, out.String())
	assert.Contains(t, meta.String(), "Headers is not valid JSON")
}

func TestPrintDocs(t *testing.T) {
	cat := catalog.Default()
	api, ok := cat.API("tx")
	require.True(t, ok)
	ep, ok := api.Endpoint("balance")
	require.True(t, ok)

	var buf bytes.Buffer
	printDocs(&buf, model.Descriptor(api, ep), ep, "python")
	out := buf.String()

	assert.Contains(t, out, "https://api.hubble-rpc.xyz/balance/api/v1/sol/balance")
	assert.Contains(t, out, "Request parameters")
	assert.Contains(t, out, "wallet")
	assert.Contains(t, out, "Solana wallet address")
	assert.Contains(t, out, "Responses")
	assert.Contains(t, out, "Invalid or missing API key")
	assert.Contains(t, out, "response = requests.post(url, json=data, headers=headers)")
	assert.NotContains(t, out, "curl -X POST")
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, catalog.Default())
	out := buf.String()

	for _, id := range []string{"text2sql", "tx", "ohlcv", "health-check", "generate-chart", "balance", "candle"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "[stream]")
}

func TestSendCommand(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvCatalog, "")

	var gotKey, gotTrace string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("HUBBLE-API-KEY")
		gotTrace = r.Header.Get("X-Trace")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":"1250000000","decimals":9}`))
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{
		"send", "--api", "tx", "--endpoint", "balance",
		"--api-key", "secret123",
		"--url", srv.URL + "/balance/api/v1/sol/balance",
		"--header", "X-Trace=abc",
		"--log-level", "error",
	})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "secret123", gotKey)
	assert.Equal(t, "abc", gotTrace)
	assert.JSONEq(t, `{"wallet":"FZ1t8TZtx7VSCQdBsxvFJiezj9paUBF6Ub7RKA2eTGyE","token":"pumpCmXqMfrsAkQ5r49WcJnRayYRqmXz6ae8H7H9Dfn"}`, string(gotBody))
	assert.Equal(t, "{\n  \"balance\": \"1250000000\",\n  \"decimals\": 9\n}\n", out.String())
	assert.Contains(t, errOut.String(), "200 OK")
}
