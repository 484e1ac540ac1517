package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestHTMLBotLayout(t *testing.T) {
	m := NewMessage(Bot, "intro ```py\nprint(1)\n``` outro", nil)
	doc := parseHTML(t, string(HTML(m)))

	wrap := doc.Find("div.msg-wrap.bot")
	if wrap.Length() != 1 {
		t.Fatalf("expected one bot wrapper, got %d", wrap.Length())
	}
	children := wrap.Children()
	if !children.Eq(0).HasClass("avatar") || !children.Eq(1).HasClass("msg") {
		t.Fatalf("bot avatar must precede content")
	}

	spans := wrap.Find("div.msg > span")
	if spans.Length() != 2 || spans.Eq(0).Text() != "intro " || spans.Eq(1).Text() != " outro" {
		t.Fatalf("unexpected text spans: %d", spans.Length())
	}
	if got := wrap.Find(".code-head span").Text(); got != "py" {
		t.Fatalf("code label = %q, want py", got)
	}
	if got := wrap.Find("pre code").Text(); got != "print(1)" {
		t.Fatalf("code content = %q, want print(1)", got)
	}
	btn := wrap.Find(".code-head button")
	if btn.Text() != CopyLabel {
		t.Fatalf("button label = %q", btn.Text())
	}
	if kind, _ := btn.Attr("data-action"); kind != string(ActionCopy) {
		t.Fatalf("data-action = %q", kind)
	}
	if id, _ := btn.Attr("data-action-id"); id != m.Actions()[0].ID {
		t.Fatalf("data-action-id = %q, want %q", id, m.Actions()[0].ID)
	}
}

func TestHTMLUserLayout(t *testing.T) {
	doc := parseHTML(t, string(HTML(NewMessage(User, "hi", nil))))
	children := doc.Find("div.msg-wrap.you").Children()
	if children.Length() != 2 || !children.Eq(0).HasClass("msg") || !children.Eq(1).HasClass("avatar") {
		t.Fatalf("user content must precede avatar")
	}
}

func TestHTMLEscapesText(t *testing.T) {
	html := string(HTML(NewMessage(Bot, "<script>alert(1)</script>```html\n<b>x</b>\n```", nil)))
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>x</b>") {
		t.Fatalf("markup was not escaped: %s", html)
	}
	doc := parseHTML(t, html)
	if doc.Find("script").Length() != 0 {
		t.Fatal("script element injected")
	}
	if got := doc.Find("pre code").Text(); got != "<b>x</b>" {
		t.Fatalf("code text = %q", got)
	}
}

func TestHTMLToolAnnotation(t *testing.T) {
	doc := parseHTML(t, string(HTML(NewMessage(Bot, "42", &ToolInfo{Name: "search"}))))
	tool := doc.Find("div.tool")
	if tool.Length() != 1 || !strings.Contains(tool.Text(), "search") {
		t.Fatalf("missing tool annotation, got %q", tool.Text())
	}
	if tool.Prev().HasClass("msg-wrap") == false {
		t.Fatal("annotation must follow the message")
	}

	doc = parseHTML(t, string(HTML(NewMessage(Bot, "42", &ToolInfo{}))))
	if doc.Find("div.tool").Length() != 0 {
		t.Fatal("empty tool name must not be annotated")
	}
}

func TestTabsHTML(t *testing.T) {
	doc := parseHTML(t, string(TabsHTML([]string{"Coding", "Math"}, "Math")))
	tabs := doc.Find("button.tab")
	if tabs.Length() != 2 {
		t.Fatalf("tabs = %d", tabs.Length())
	}
	if tabs.Eq(0).HasClass("active") || !tabs.Eq(1).HasClass("active") {
		t.Fatal("only the selected subject is active")
	}
}

func TestPendingHTML(t *testing.T) {
	doc := parseHTML(t, string(PendingHTML("pending-1")))
	if doc.Find("#pending-1 .typing .dot").Length() != 3 {
		t.Fatal("pending indicator missing dots")
	}
}

func TestBlocksAttachCopyActions(t *testing.T) {
	m := NewMessage(Bot, "```\na\n\n```x```go\nb\n```", nil)
	actions := m.Actions()
	if len(actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(actions))
	}
	if actions[0].Payload != "a" || actions[1].Payload != "b" {
		t.Fatalf("payloads = %q, %q", actions[0].Payload, actions[1].Payload)
	}
	if actions[0].ID == actions[1].ID {
		t.Fatal("action IDs must be unique")
	}
}

func TestTermRender(t *testing.T) {
	r := NewTerm(60)
	r.Highlight = false
	m := NewMessage(Bot, "look:\n```sh\nls -la\n```", &ToolInfo{Name: "calculator"})

	out := r.Render(m, func(a Action) string {
		if a.ID == m.Actions()[0].ID {
			return CopiedLabel
		}
		return CopyLabel
	})
	for _, want := range []string{"🤖", "look:", "sh", "[Copied!]", "ls -la", "Tool used: calculator"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "🤖") > strings.Index(out, "look:") {
		t.Fatal("bot avatar must come first")
	}
}

func TestTermRenderUserAvatarLast(t *testing.T) {
	out := NewTerm(40).Render(NewMessage(User, "question", nil), nil)
	if strings.Index(out, "question") > strings.Index(out, "👤") {
		t.Fatalf("user avatar must come last:\n%s", out)
	}
}

func TestPlain(t *testing.T) {
	got := Plain(NewMessage(Bot, "a```py\nx\n```b", &ToolInfo{Name: "search"}))
	want := "🤖 a\n[py]\nx\nb\n" + ToolAnnotationPrefix + "search"
	if got != want {
		t.Fatalf("Plain() = %q, want %q", got, want)
	}
}

func TestTelegram(t *testing.T) {
	got := Telegram(NewMessage(Bot, "1 < 2 ```go\nif a && b {}\n``````\nplain\n```", &ToolInfo{Name: "calculator"}))
	want := "1 &lt; 2 <pre><code class=\"language-go\">if a &amp;&amp; b {}</code></pre>" +
		"<pre><code>plain</code></pre>\n\n<i>" + ToolAnnotationPrefix + "calculator</i>"
	if got != want {
		t.Fatalf("Telegram() = %q\nwant %q", got, want)
	}
}

func TestTelegramTextIsInert(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"use *args and __init__ here", "use *args and __init__ here"},
		{"Hello **world** ~~x~~ [a](b)", "Hello **world** ~~x~~ [a](b)"},
		{"see\n```py\nprint(1)", "see\n```py\nprint(1)"},
		{"<b>raw</b> & more", "&lt;b&gt;raw&lt;/b&gt; &amp; more"},
		{"keep trailing  ", "keep trailing  "},
	}
	for _, tt := range tests {
		if got := Telegram(NewMessage(Bot, tt.in, nil)); got != tt.want {
			t.Errorf("Telegram(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTerminalOutputDropsControlSequences(t *testing.T) {
	text := "hi \x1b]52;c;aGVsbG8=\x07 there\x1b[2J\r ok\n\tdone ```sh\necho \x1b[31mred\n```"
	m := NewMessage(Bot, text, &ToolInfo{Name: "calc\x1b[2J"})

	plain := Plain(m)
	for _, bad := range []string{"\x1b", "\x07", "\r"} {
		if strings.Contains(plain, bad) {
			t.Errorf("Plain() kept %q: %q", bad, plain)
		}
	}
	for _, want := range []string{"hi  there ok\n\tdone", "echo red"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Plain() = %q, missing %q", plain, want)
		}
	}

	term := NewTerm(80)
	term.Highlight = false
	out := term.Render(m, nil)
	for _, bad := range []string{"\x1b]52", "\x1b[2J", "\x1b[31m", "\x07"} {
		if strings.Contains(out, bad) {
			t.Errorf("Term.Render() kept %q: %q", bad, out)
		}
	}

	// The copy payload is the code exactly as sent.
	if got := m.Actions()[0].Payload; got != "echo \x1b[31mred" {
		t.Errorf("payload = %q", got)
	}
}

func TestInert(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain\ttext\n", "plain\ttext\n"},
		{"a\x1b[1mb\x1b[0m", "ab"},
		{"x\x1b]52;c;Zm9v\x07y", "xy"},
		{"bell\x07 del\x7f nul\x00", "bell del nul"},
		{"héllo — ünïcode", "héllo — ünïcode"},
	}
	for _, tt := range tests {
		if got := inert(tt.in); got != tt.want {
			t.Errorf("inert(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
