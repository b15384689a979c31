// Package playground wires endpoint selection, request composition and
// execution into one session.
package playground

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"hubbleplay/internal/composer"
	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/logger"
	"hubbleplay/internal/metrics"
	"hubbleplay/internal/model"
	"hubbleplay/internal/selector"
)

// Options seed the initial selection and credential.
type Options struct {
	APIID      string
	EndpointID string
	// Query carries the "api" and "endpoint" parameters of a shared link.
	Query  url.Values
	APIKey string
}

// Session is the playground state machine. Selection changes reseed the
// composer, credential changes resync the auth header, and Send runs the
// composed request into the session's Exchange.
// All methods are safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	sel       *selector.Selector
	state     *composer.State
	exec      *httpclient.Executor
	exchange  *httpclient.Exchange
	log       *logger.Logger
	listeners []func()
}

func NewSession(cat *model.Catalog, opts Options, exec *httpclient.Executor, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if exec == nil {
		exec = httpclient.NewExecutor(nil, log)
	}

	initial := selector.ResolveInitialSelection(cat, opts.APIID, opts.EndpointID, opts.Query)
	sel, err := selector.New(cat, initial)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	s := &Session{
		sel:      sel,
		state:    composer.New(),
		exec:     exec,
		exchange: httpclient.NewExchange(),
		log:      log.WithComponent(logger.ComponentSession),
	}

	d := sel.Active()
	s.state.OnEndpointChanged(d)
	s.state.OnAuthChanged(opts.APIKey, d.APIKeyHeaderName)

	s.log.Debugw("session started", "api", d.APIID, "endpoint", d.EndpointID)
	return s, nil
}

// SelectAPI switches API; its first endpoint becomes active.
func (s *Session) SelectAPI(apiID string) (model.EndpointDescriptor, error) {
	s.mu.Lock()
	d, err := s.sel.SelectAPI(apiID)
	if err != nil {
		s.mu.Unlock()
		return model.EndpointDescriptor{}, err
	}
	s.state.OnEndpointChanged(d)
	s.state.OnAuthChanged(s.state.APIKey, d.APIKeyHeaderName)
	s.mu.Unlock()

	metrics.SelectionInc(d.APIID, d.EndpointID)
	s.log.Debugw("api selected", "api", d.APIID, "endpoint", d.EndpointID)
	s.notify()
	return d, nil
}

// SelectEndpoint activates an endpoint of the current API.
func (s *Session) SelectEndpoint(endpointID string) (model.EndpointDescriptor, error) {
	s.mu.Lock()
	d, err := s.sel.SelectEndpoint(endpointID)
	if err != nil {
		s.mu.Unlock()
		return model.EndpointDescriptor{}, err
	}
	s.state.OnEndpointChanged(d)
	s.mu.Unlock()

	metrics.SelectionInc(d.APIID, d.EndpointID)
	s.log.Debugw("endpoint selected", "api", d.APIID, "endpoint", d.EndpointID)
	s.notify()
	return d, nil
}

// SetAPIKey stores the credential and writes it into the headers.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	s.state.OnAuthChanged(key, s.sel.Active().APIKeyHeaderName)
	s.mu.Unlock()
	s.notify()
}

func (s *Session) SetURL(u string) {
	s.mu.Lock()
	s.state.URL = u
	s.mu.Unlock()
}

func (s *Session) SetMethod(m model.HTTPMethod) error {
	if !m.Valid() {
		return fmt.Errorf("unsupported method %q", m)
	}
	s.mu.Lock()
	s.state.Method = m
	s.mu.Unlock()
	return nil
}

func (s *Session) SetHeadersText(text string) {
	s.mu.Lock()
	s.state.HeadersText = text
	s.mu.Unlock()
}

func (s *Session) SetBodyText(text string) {
	s.mu.Lock()
	s.state.BodyText = text
	s.mu.Unlock()
}

// SetHeader sets one header in the headers text. It fails when the text is
// not a JSON object.
func (s *Session) SetHeader(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetHeader(name, value)
}

// State returns a copy of the composer state.
func (s *Session) State() composer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Active returns the active endpoint descriptor.
func (s *Session) Active() model.EndpointDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Active()
}

// Endpoint returns the active endpoint's catalog entry.
func (s *Session) Endpoint() model.EndpointConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sel.Endpoint()
}

func (s *Session) Selection() selector.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Selection()
}

func (s *Session) Catalog() *model.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Catalog()
}

// Exchange is the result slot that Send publishes into.
func (s *Session) Exchange() *httpclient.Exchange {
	return s.exchange
}

// Send runs the composed request. A send already in flight is cancelled.
// It blocks until the exchange finishes and returns its final result.
func (s *Session) Send(ctx context.Context) httpclient.Result {
	s.mu.Lock()
	req := httpclient.Request{
		Composer: s.state.Snapshot(),
		Endpoint: s.sel.Active(),
	}
	s.mu.Unlock()

	return s.exec.Send(ctx, s.exchange, req)
}

// ReplaceCatalog swaps in a new catalog, keeping the current selection when
// it still exists. The composer is reseeded only when the active endpoint
// changed, so edits survive reloads that do not touch it.
func (s *Session) ReplaceCatalog(cat *model.Catalog) error {
	s.mu.Lock()
	before := s.sel.Active()
	if err := s.sel.Reset(cat, s.sel.Selection()); err != nil {
		s.mu.Unlock()
		return err
	}
	after := s.sel.Active()
	if !sameEndpoint(before, after) {
		s.state.OnEndpointChanged(after)
		s.state.OnAuthChanged(s.state.APIKey, after.APIKeyHeaderName)
	}
	s.mu.Unlock()

	s.log.Infow("catalog replaced", "apis", len(cat.APIs), "api", after.APIID, "endpoint", after.EndpointID)
	s.notify()
	return nil
}

// OnChange registers fn to run after selection, credential or catalog
// changes.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close cancels any send in flight.
func (s *Session) Close() {
	s.exchange.Close()
}

func (s *Session) notify() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func sameEndpoint(a, b model.EndpointDescriptor) bool {
	return a.APIID == b.APIID &&
		a.EndpointID == b.EndpointID &&
		a.Method == b.Method &&
		a.URL() == b.URL() &&
		a.APIKeyHeaderName == b.APIKeyHeaderName &&
		a.SupportsStream == b.SupportsStream &&
		a.SampleBody.String() == b.SampleBody.String()
}
