// Package httpclient performs playground exchanges: one HTTP request per
// send, with the response either buffered or streamed into an Exchange.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"hubbleplay/internal/composer"
	"hubbleplay/internal/model"
)

const (
	DefaultResponseHeaderTimeout = 60 * time.Second
	defaultDialTimeout           = 10 * time.Second
	defaultContentType           = "application/json"
)

var ErrInvalidHeaders = errors.New("headers is not valid JSON")

// NewClient returns a client suited to long-lived streams: the wait for
// response headers is bounded, reading the body is not.
func NewClient(responseHeaderTimeout time.Duration) *http.Client {
	if responseHeaderTimeout <= 0 {
		responseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.ResponseHeaderTimeout = responseHeaderTimeout
	return &http.Client{Transport: transport}
}

// RequestSpec is the wire form of a composed request.
type RequestSpec struct {
	Method  model.HTTPMethod
	URL     string
	Headers []composer.Header
	Body    []byte
}

// Header returns the value of the first header matching name, ignoring case.
func (r RequestSpec) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// BuildRequest turns composer state into a request. Non-GET requests with a
// non-empty body carry it and default Content-Type to application/json.
// GET never carries a body. Headers that are not a JSON object yield
// ErrInvalidHeaders.
func BuildRequest(s composer.State) (RequestSpec, error) {
	headers, err := composer.ParseHeaders(s.HeadersText)
	if err != nil {
		return RequestSpec{}, fmt.Errorf("%w: %v", ErrInvalidHeaders, err)
	}

	method := s.Method
	if method == "" {
		method = model.MethodGet
	}

	spec := RequestSpec{Method: method, URL: strings.TrimSpace(s.URL), Headers: headers}
	if method != model.MethodGet && s.BodyText != "" {
		spec.Body = []byte(s.BodyText)
		if _, ok := spec.Header("Content-Type"); !ok {
			spec.Headers = append(spec.Headers, composer.Header{Name: "Content-Type", Value: defaultContentType})
		}
	}
	return spec, nil
}

// NewHTTPRequest builds the net/http request for spec.
func (r RequestSpec) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, string(r.Method), r.URL, body)
	if err != nil {
		return nil, err
	}
	for _, h := range r.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	return req, nil
}

// WantsStream reports whether the response should be streamed: the endpoint
// supports streaming and the body is a JSON object whose "stream" field is
// truthy. A body that does not parse disables streaming.
func WantsStream(d model.EndpointDescriptor, bodyText string) bool {
	if !d.SupportsStream {
		return false
	}
	if strings.TrimSpace(bodyText) == "" {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(bodyText), &obj); err != nil {
		return false
	}
	return truthy(obj["stream"])
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		// objects and arrays
		return true
	}
}
