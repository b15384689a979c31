package main

import (
	"github.com/charmbracelet/lipgloss"

	"hubbleplay/internal/model"
)

var (
	green  = lipgloss.Color("#5FD787")
	yellow = lipgloss.Color("#FFD75F")
	red    = lipgloss.Color("#FF5F5F")
	blue   = lipgloss.Color("#5FAFFF")
	cyan   = lipgloss.Color("#B6FFFF")
	gray   = lipgloss.Color("#767676")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(cyan)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(gray)
	idStyle      = lipgloss.NewStyle().Foreground(cyan)
	codeStyle    = lipgloss.NewStyle().PaddingLeft(2)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	okStyle      = lipgloss.NewStyle().Foreground(green)
)

func methodStyle(m model.HTTPMethod) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Width(7)
	switch m {
	case model.MethodGet:
		return s.Foreground(blue)
	case model.MethodPost:
		return s.Foreground(green)
	case model.MethodPut, model.MethodPatch:
		return s.Foreground(yellow)
	case model.MethodDelete:
		return s.Foreground(red)
	}
	return s
}

func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 200 && code < 300:
		return okStyle
	case code >= 400 && code < 500:
		return lipgloss.NewStyle().Foreground(yellow)
	case code >= 500:
		return errorStyle
	}
	return lipgloss.NewStyle()
}
