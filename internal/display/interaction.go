package display

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	envPlain         = "PRETTYBUILD_PLAIN"
	envNoInteraction = "NO_INTERACTION"
	envCI            = "CI"
	envTerm          = "TERM"
)

// Interactive reports whether a live display may take over f. forcePlain,
// the environment and the kind of f can all rule it out.
func Interactive(f *os.File, forcePlain bool) bool {
	if forcePlain {
		return false
	}
	if envTruthy(envPlain) || envTruthy(envNoInteraction) || envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a lipgloss renderer for w. Non-interactive output gets
// the ASCII profile so no escape sequences are emitted.
func NewRenderer(w io.Writer, interactive bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !interactive {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

func envTruthy(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
