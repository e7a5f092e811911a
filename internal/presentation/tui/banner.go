package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for History.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _   _ _     _                   ", "#818cf8"},
		{"| | | (_)___| |_ ___  _ __ _   _ ", "#a78bfa"},
		{"| |_| | / __| __/ _ \\| '__| | | |", "#c084fc"},
		{"|  _  | \\__ \\ || (_) | |  | |_| |", "#e879f9"},
		{"|_| |_|_|___/\\__\\___/|_|   \\__, |", "#f472b6"},
		{"                           |___/ ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("v"+strings.TrimSpace(version)).Faint())
	}
	fmt.Fprintln(w)
}
