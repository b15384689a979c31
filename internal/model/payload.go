package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Payload is a JSON document taken verbatim from the catalog. Object key
// order is preserved for JSON and YAML sources so sample bodies render the
// way they were written.
type Payload struct {
	raw json.RawMessage
}

// NewPayload wraps an already encoded JSON document.
func NewPayload(raw []byte) Payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Payload{}
	}
	return Payload{raw: append(json.RawMessage(nil), raw...)}
}

// PayloadOf encodes v. It panics if v cannot be represented as JSON, so it
// is meant for literals.
func PayloadOf(v any) Payload {
	b, err := marshalNoEscape(v)
	if err != nil {
		panic(fmt.Sprintf("model: payload of %T: %v", v, err))
	}
	return NewPayload(b)
}

// IsZero reports whether the payload is absent (missing or JSON null).
func (p Payload) IsZero() bool {
	return len(p.raw) == 0
}

// Raw returns the encoded JSON, or nil when the payload is absent.
func (p Payload) Raw() json.RawMessage {
	return p.raw
}

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	if p.IsZero() {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(p.raw, v)
}

func (p Payload) String() string {
	if p.IsZero() {
		return ""
	}
	return string(p.raw)
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return p.raw, nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	if !json.Valid(b) {
		return fmt.Errorf("payload: invalid json")
	}
	*p = NewPayload(b)
	return nil
}

func (p Payload) MarshalYAML() (any, error) {
	if p.IsZero() {
		return nil, nil
	}
	var n yaml.Node
	// JSON is a YAML subset; decoding through a node keeps key order.
	if err := yaml.Unmarshal(p.raw, &n); err != nil {
		return nil, err
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return n.Content[0], nil
	}
	return &n, nil
}

func (p *Payload) UnmarshalYAML(n *yaml.Node) error {
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, n); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	*p = NewPayload(buf.Bytes())
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler. TOML tables are decoded into
// maps, so key order is alphabetical for TOML catalogs.
func (p *Payload) UnmarshalTOML(v any) error {
	b, err := marshalNoEscape(v)
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	*p = NewPayload(b)
	return nil
}

// JSONSchema reports that a payload may hold any JSON value.
func (Payload) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Description: "Arbitrary JSON value"}
}

func writeYAMLNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeYAMLNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := marshalNoEscape(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		if tag := n.ShortTag(); (tag == "!!int" || tag == "!!float") && json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
		if n.ShortTag() == "!!timestamp" {
			b, err := marshalNoEscape(n.Value)
			if err != nil {
				return err
			}
			buf.Write(b)
			return nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		b, err := marshalNoEscape(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	default:
		return fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
	}
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
