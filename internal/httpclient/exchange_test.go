package httpclient

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/composer"
	"hubbleplay/internal/model"
)

func TestExchange_DiscardsStaleUpdates(t *testing.T) {
	x := NewExchange()

	var seen []uint64
	x.OnChange(func(r Result) { seen = append(seen, r.Seq) })

	require.True(t, x.Publish(Result{Seq: 2, Body: "new"}))
	assert.False(t, x.Publish(Result{Seq: 1, Body: "old"}))
	require.True(t, x.Publish(Result{Seq: 2, Body: "newer"}))

	assert.Equal(t, "newer", x.Result().Body)
	assert.Equal(t, []uint64{2, 2}, seen)
}

func TestExchange_BeginCancelsPrevious(t *testing.T) {
	x := NewExchange()

	ctx1, seq1 := x.Begin(context.Background())
	ctx2, seq2 := x.Begin(context.Background())
	assert.Greater(t, seq2, seq1)

	require.ErrorIs(t, ctx1.Err(), context.Canceled)
	require.NoError(t, ctx2.Err())
	assert.True(t, x.InFlight())

	// ending a superseded invocation does not touch the current one
	x.End(seq1)
	require.NoError(t, ctx2.Err())

	x.End(seq2)
	require.ErrorIs(t, ctx2.Err(), context.Canceled)
	assert.False(t, x.InFlight())
}

func TestExchange_Close(t *testing.T) {
	x := NewExchange()
	ctx, _ := x.Begin(context.Background())

	x.Close()
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, _ = x.Begin(context.Background())
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

// blockingBody delivers one chunk and then blocks until the request
// context is cancelled.
type blockingBody struct {
	ctx  context.Context
	sent bool
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, "first"), nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *blockingBody) Close() error { return nil }

func TestSend_NewerSendSupersedesStream(t *testing.T) {
	started := make(chan struct{})
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("X-Call") == "1" {
			close(started)
			return response(http.StatusOK, "text/event-stream", &blockingBody{ctx: r.Context()}), nil
		}
		return response(http.StatusOK, "application/json", io.NopCloser(stringsReader(`{"second":true}`))), nil
	})
	e := NewExecutor(client, nil)
	x := NewExchange()

	first := Request{
		Composer: composer.State{Method: model.MethodPost, URL: "https://a/x", HeadersText: `{"X-Call":"1"}`, BodyText: `{"stream":true}`},
		Endpoint: streamEndpoint,
	}
	second := Request{
		Composer: composer.State{Method: model.MethodGet, URL: "https://a/y", HeadersText: `{"X-Call":"2"}`},
	}

	done := make(chan Result, 1)
	go func() { done <- e.Send(context.Background(), x, first) }()
	<-started

	res := e.Send(context.Background(), x, second)
	assert.Equal(t, StateComplete, res.State)

	select {
	case r := <-done:
		assert.Less(t, r.Seq, res.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded stream did not stop")
	}

	final := x.Result()
	assert.Equal(t, res.Seq, final.Seq)
	assert.Equal(t, "{\n  \"second\": true\n}", final.Body)
	assert.False(t, x.InFlight())
}

func stringsReader(s string) io.Reader {
	return &chunkReader{chunks: [][]byte{[]byte(s)}}
}
