package tui

import (
	"fmt"

	"github.com/aretw0/history/pkg/domain"
	"github.com/muesli/termenv"
)

var actionColors = map[domain.Action]string{
	domain.Push:    "#34d399",
	domain.Replace: "#fbbf24",
	domain.Pop:     "#60a5fa",
}

// NewLocationRenderer returns a runner renderer that colors the action and
// emphasizes the path. Colors degrade with the detected terminal profile.
func NewLocationRenderer(p termenv.Profile) func(domain.Location) string {
	return func(loc domain.Location) string {
		action := p.String(fmt.Sprintf("%-7s", loc.Action))
		if c, ok := actionColors[loc.Action]; ok {
			action = action.Foreground(p.Color(c))
		}
		out := fmt.Sprintf("%s %s", action, p.String(loc.Path()).Bold())
		if loc.Key != "" {
			out += " " + p.String("["+loc.Key+"]").Faint().String()
		}
		return out
	}
}
