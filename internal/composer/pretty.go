package composer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hubbleplay/internal/model"
)

const indent = "  "

// Pretty renders v as two-space indented JSON. Strings and byte slices are
// treated as JSON text: valid JSON is re-indented with key order kept,
// anything else is returned unchanged. Pretty is idempotent on valid JSON.
func Pretty(v any) string {
	switch val := v.(type) {
	case string:
		return prettyText(val)
	case []byte:
		return prettyText(string(val))
	case json.RawMessage:
		return prettyText(string(val))
	case model.Payload:
		if val.IsZero() {
			return ""
		}
		return prettyText(val.String())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func prettyText(s string) string {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", indent); err != nil {
		return s
	}
	return buf.String()
}
