package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func colorEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func styleError(s string) string {
	if !colorEnabled() {
		return s
	}
	return errStyle.Render(s)
}

func styleHeader(s string) string {
	if !colorEnabled() {
		return s
	}
	return headerStyle.Render(s)
}
