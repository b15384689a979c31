package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"hubbleplay/internal/composer"
	"hubbleplay/internal/logger"
	"hubbleplay/internal/model"
)

const (
	headersInvalidMessage  = "Headers is not valid JSON"
	streamMissingMessage   = "SSE stream is not available (Response.body is empty)"
	requestFailedPrefix    = "Request failed: "
	streamReadBufferLength = 4096
)

// State is the lifecycle of one exchange.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateBuffering
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateBuffering:
		return "buffering"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s State) Done() bool {
	return s == StateComplete || s == StateFailed
}

// Result is what the response panes show for one exchange.
type Result struct {
	Seq        uint64
	State      State
	StatusCode int
	// StatusLine reads "<status> <statusText> · <elapsed> ms".
	StatusLine string
	// Headers holds one "name: value" line per response header.
	Headers   []string
	Body      string
	Streaming bool
	Elapsed   time.Duration
}

// HeadersText joins the header lines the way the headers pane shows them.
func (r Result) HeadersText() string {
	return strings.Join(r.Headers, "\n")
}

// Request is a snapshot of what to send.
type Request struct {
	Composer composer.State
	Endpoint model.EndpointDescriptor
}

type Option func(*Executor)

// WithUserAgent sets a User-Agent unless the composed headers carry one.
func WithUserAgent(ua string) Option {
	return func(e *Executor) { e.userAgent = ua }
}

// Executor runs exchanges. It never retries.
type Executor struct {
	client    *http.Client
	log       *logger.Logger
	userAgent string
	now       func() time.Time
}

func NewExecutor(client *http.Client, log *logger.Logger, opts ...Option) *Executor {
	if client == nil {
		client = NewClient(DefaultResponseHeaderTimeout)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	e := &Executor{
		client: client,
		log:    log.WithComponent(logger.ComponentExecutor),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send runs req as a new invocation on x, superseding any send in flight.
func (e *Executor) Send(ctx context.Context, x *Exchange, req Request) Result {
	ctx, seq := x.Begin(ctx)
	defer x.End(seq)
	return e.Execute(ctx, seq, req, x)
}

// Execute performs one exchange, publishing every intermediate result to
// pub, and returns the final result. Failures end up in the result body.
func (e *Executor) Execute(ctx context.Context, seq uint64, req Request, pub Publisher) Result {
	run := &exchangeRun{
		pub:      pub,
		res:      Result{Seq: seq, State: StateSending},
		api:      req.Endpoint.APIID,
		endpoint: req.Endpoint.EndpointID,
	}
	start := e.now()
	run.publish()

	spec, err := BuildRequest(req.Composer)
	if err != nil {
		e.log.Debugw("headers rejected", "seq", seq, "error", err)
		ExchangeFailureInc(run.api, "headers")
		return run.fail(headersInvalidMessage)
	}

	streaming := WantsStream(req.Endpoint, req.Composer.BodyText)
	mode := "buffered"
	if streaming {
		mode = "stream"
	}
	ExchangeInc(run.api, run.endpoint, mode)

	httpReq, err := spec.NewHTTPRequest(ctx)
	if err != nil {
		ExchangeFailureInc(run.api, "request")
		return run.fail(requestFailedPrefix + err.Error())
	}
	if e.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}

	e.log.Debugw("sending request", "seq", seq, "method", spec.Method, "url", spec.URL, "stream", streaming)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			e.log.Debugw("request cancelled", "seq", seq)
		} else {
			e.log.Warnw("request failed", "seq", seq, "url", spec.URL, "error", err)
		}
		ExchangeFailureInc(run.api, "transport")
		return run.fail(requestFailedPrefix + err.Error())
	}
	defer resp.Body.Close()

	elapsed := e.now().Sub(start)
	ExchangeDurationLog(run.api, run.endpoint, elapsed)

	run.res.StatusCode = resp.StatusCode
	run.res.StatusLine = statusLine(resp, elapsed)
	run.res.Headers = headerLines(resp.Header)
	run.res.Elapsed = elapsed
	run.res.Streaming = streaming

	e.log.Debugw("response received", "seq", seq, "status", resp.StatusCode, "elapsed", elapsed)

	if streaming {
		return e.stream(ctx, run, resp)
	}
	return e.buffer(run, resp)
}

func (e *Executor) stream(ctx context.Context, run *exchangeRun, resp *http.Response) Result {
	// An empty body (http.NoBody) is still readable and ends as an empty
	// complete stream; only a missing reader gets the diagnostic.
	if resp.Body == nil {
		e.log.Debugw("stream body missing", "seq", run.res.Seq)
		run.res.Body = streamMissingMessage
		run.res.State = StateComplete
		run.publish()
		return run.res
	}

	run.res.State = StateStreaming
	if !run.publish() {
		return run.res
	}

	var body strings.Builder
	reader := newTextReader(resp.Body, resp.Header.Get("Content-Type"))
	buf := make([]byte, streamReadBufferLength)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			body.Write(buf[:n])
			run.res.Body = body.String()
			StreamChunkInc(run.api, run.endpoint, n)
			if !run.publish() {
				e.log.Debugw("stream superseded", "seq", run.res.Seq)
				return run.res
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				e.log.Debugw("stream cancelled", "seq", run.res.Seq)
			} else {
				e.log.Warnw("stream read failed", "seq", run.res.Seq, "error", err)
			}
			ExchangeFailureInc(run.api, "stream")
			return run.fail(requestFailedPrefix + err.Error())
		}
	}

	run.res.State = StateComplete
	run.publish()
	return run.res
}

func (e *Executor) buffer(run *exchangeRun, resp *http.Response) Result {
	run.res.State = StateBuffering
	if !run.publish() {
		return run.res
	}

	contentType := resp.Header.Get("Content-Type")
	data, err := io.ReadAll(newTextReader(resp.Body, contentType))
	if err != nil {
		e.log.Warnw("reading response failed", "seq", run.res.Seq, "error", err)
		ExchangeFailureInc(run.api, "read")
		return run.fail(requestFailedPrefix + err.Error())
	}

	text := string(data)
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		text = composer.Pretty(text)
	}

	run.res.Body = text
	run.res.State = StateComplete
	run.publish()
	return run.res
}

type exchangeRun struct {
	pub      Publisher
	res      Result
	api      string
	endpoint string
}

func (r *exchangeRun) publish() bool {
	if r.pub == nil {
		return true
	}
	return r.pub.Publish(r.res)
}

func (r *exchangeRun) fail(body string) Result {
	r.res.State = StateFailed
	r.res.Body = body
	r.publish()
	return r.res
}

func statusLine(resp *http.Response, elapsed time.Duration) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Sprintf("%d %s · %d ms", resp.StatusCode, text, elapsed.Round(time.Millisecond).Milliseconds())
}

// headerLines flattens response headers into sorted "name: value" lines
// with lower-case names and repeated values joined by ", ".
func headerLines(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, strings.ToLower(name)+": "+strings.Join(h[name], ", "))
	}
	return lines
}
