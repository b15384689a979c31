// Package composer holds the editable request the user is about to send.
package composer

import (
	"encoding/json"
	"fmt"

	"hubbleplay/internal/model"
)

// State is the composed request. It lives in memory only.
type State struct {
	URL         string
	Method      model.HTTPMethod
	HeadersText string
	BodyText    string
	APIKey      string

	// header name last written by OnAuthChanged
	authHeader string
}

// New returns an empty state with an empty headers object.
func New() *State {
	return &State{Method: model.MethodGet, HeadersText: "{}"}
}

// OnEndpointChanged reseeds URL, method and body from d. Headers and the
// API key are left alone.
func (s *State) OnEndpointChanged(d model.EndpointDescriptor) {
	s.URL = d.URL()
	s.Method = d.Method
	s.BodyText = Pretty(d.SampleBody)
}

// OnAuthChanged writes apiKey into the headers object under headerName, or
// removes that entry when apiKey is empty. Malformed headers text is
// treated as an empty object.
//
// Every other entry keeps its value and position, with one exception: when
// headerName differs from the name used last time, the entry under the
// previous name is removed as well, so a key set for one API is not sent
// to another under its old header.
func (s *State) OnAuthChanged(apiKey, headerName string) {
	entries, err := parseHeaderObject(s.HeadersText)
	if err != nil {
		entries = nil
	}

	if s.authHeader != "" && s.authHeader != headerName {
		entries = deleteHeader(entries, s.authHeader)
	}

	if headerName != "" {
		if apiKey != "" {
			value, _ := json.Marshal(apiKey)
			entries = setHeader(entries, headerName, value)
		} else {
			entries = deleteHeader(entries, headerName)
		}
	}

	s.APIKey = apiKey
	s.authHeader = headerName
	s.HeadersText = formatHeaderObject(entries)
}

// SetHeader sets one entry of the headers object, keeping the position of
// an existing entry with the same name.
func (s *State) SetHeader(name, value string) error {
	entries, err := parseHeaderObject(s.HeadersText)
	if err != nil {
		return fmt.Errorf("set header %s: %w", name, err)
	}
	raw, _ := json.Marshal(value)
	s.HeadersText = formatHeaderObject(setHeader(entries, name, raw))
	return nil
}

// Snapshot returns a copy safe to hand to another goroutine.
func (s *State) Snapshot() State {
	return *s
}
