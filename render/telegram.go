package render

import (
	"fmt"
	"strings"

	"github.com/linanwx/tutorbot/segment"
)

// Telegram renders m in the HTML subset accepted by the Telegram Bot API.
// Text segments are escaped verbatim. Code blocks keep their language as a
// class so clients can highlight them and offer their own copy control.
func Telegram(m Message) string {
	var b strings.Builder
	for _, s := range m.Segments {
		if !s.IsCode() {
			b.WriteString(escapeTelegram(s.Content))
			continue
		}
		if s.Language != segment.DefaultLanguage {
			fmt.Fprintf(&b, "<pre><code class=\"language-%s\">", escapeTelegram(s.Language))
		} else {
			b.WriteString("<pre><code>")
		}
		b.WriteString(escapeTelegram(s.Content))
		b.WriteString("</code></pre>")
	}
	out := b.String()
	if ann := m.Annotation(); ann != "" {
		out += "\n\n<i>" + escapeTelegram(ann) + "</i>"
	}
	return out
}

func escapeTelegram(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
