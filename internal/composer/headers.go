package composer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Header is one entry of the headers JSON object.
type Header struct {
	Name  string
	Value string
}

type headerEntry struct {
	name  string
	value json.RawMessage
}

// ParseHeaders parses headers text as a JSON object, keeping entry order.
// Empty text is an empty object. String values are used as-is, other JSON
// values as their compact JSON text.
func ParseHeaders(text string) ([]Header, error) {
	entries, err := parseHeaderObject(text)
	if err != nil {
		return nil, err
	}

	out := make([]Header, 0, len(entries))
	for _, e := range entries {
		out = append(out, Header{Name: e.name, Value: headerValue(e.value)})
	}
	return out, nil
}

func headerValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// parseHeaderObject decodes a JSON object into ordered entries. A repeated
// key keeps its first position and takes the last value.
func parseHeaderObject(text string) ([]headerEntry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("headers must be a JSON object")
	}

	var entries []headerEntry
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, seen := index[name]; seen {
			entries[i].value = value
			continue
		}
		index[name] = len(entries)
		entries = append(entries, headerEntry{name: name, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after headers object")
	}
	return entries, nil
}

func formatHeaderObject(entries []headerEntry) string {
	if len(entries) == 0 {
		return "{}"
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			compact.WriteByte(',')
		}
		name, _ := json.Marshal(e.name)
		compact.Write(name)
		compact.WriteByte(':')
		compact.Write(e.value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return compact.String()
	}
	return out.String()
}

func setHeader(entries []headerEntry, name string, value json.RawMessage) []headerEntry {
	for i := range entries {
		if entries[i].name == name {
			entries[i].value = value
			return entries
		}
	}
	return append(entries, headerEntry{name: name, value: value})
}

func deleteHeader(entries []headerEntry, name string) []headerEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.name != name {
			out = append(out, e)
		}
	}
	return out
}
