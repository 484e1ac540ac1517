package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// inert strips escape sequences and control characters other than newline
// and tab, so reply text cannot drive the terminal.
func inert(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20, r == 0x7f, r >= 0x80 && r <= 0x9f:
			return -1
		}
		return r
	}, ansi.Strip(s))
}
