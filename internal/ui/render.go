package ui

import (
	"strconv"
	"strings"

	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/model"
)

// ansi colors
const (
	colorDim     = "\033[90m"
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

const streamingTip = `Tip: returns SSE stream when "stream": true.`

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func colorizeMethod(method model.HTTPMethod) string {
	var color string
	switch method {
	case model.MethodGet:
		color = colorBlue
	case model.MethodPost:
		color = colorGreen
	case model.MethodPut:
		color = colorYellow
	case model.MethodDelete:
		color = colorRed
	case model.MethodPatch:
		color = colorCyan
	default:
		color = colorMagenta
	}
	return color + padRight(string(method), 6) + colorReset
}

// colorizeStatus colors a status line by the class of its leading code.
func colorizeStatus(status string) string {
	parts := strings.Fields(status)
	if len(parts) == 0 {
		return status
	}
	code, err := strconv.Atoi(parts[0])
	if err != nil {
		return status
	}
	var color string
	switch {
	case code >= 200 && code < 300:
		color = colorGreen
	case code >= 400 && code < 500:
		color = colorYellow
	case code >= 500:
		color = colorRed
	default:
		color = colorReset
	}
	return color + status + colorReset
}

// nextMethod cycles through the supported methods.
func nextMethod(m model.HTTPMethod, delta int) model.HTTPMethod {
	n := len(model.Methods)
	for i, candidate := range model.Methods {
		if candidate == m {
			return model.Methods[((i+delta)%n+n)%n]
		}
	}
	return model.Methods[0]
}

// endpointInfo is the text shown under the endpoint list.
func endpointInfo(ep model.EndpointConfig) string {
	var lines []string
	if d := strings.TrimSpace(ep.Description); d != "" {
		lines = append(lines, d)
	}
	if ep.SupportsStream {
		lines = append(lines, colorDim+streamingTip+colorReset)
	}
	return strings.Join(lines, "\n")
}

// statusText renders the status pane for r.
func statusText(r httpclient.Result) string {
	switch r.State {
	case httpclient.StateIdle:
		return colorDim + "Press ctrl+r to send" + colorReset
	case httpclient.StateSending:
		return "Sending…"
	case httpclient.StateStreaming:
		return colorizeStatus(r.StatusLine) + colorDim + "  streaming…" + colorReset
	}
	if r.StatusLine == "" {
		return colorRed + "Failed" + colorReset
	}
	return colorizeStatus(r.StatusLine)
}
