// Package segment splits chat reply text into an ordered list of plain-text
// and fenced-code segments.
//
// A fence opens with three backticks, an optional language identifier made of
// ASCII word characters, and a line break. It closes at the next run of three
// backticks. An opener without a matching closer is ordinary text.
package segment

import "strings"

// DefaultLanguage labels code blocks whose fence carries no identifier.
const DefaultLanguage = "code"

const fence = "```"

// Kind tags a Segment variant.
type Kind int

const (
	// Text is a run of plain text.
	Text Kind = iota
	// Code is a fenced code block.
	Code
)

func (k Kind) String() string {
	if k == Code {
		return "code"
	}
	return "text"
}

// Segment is a contiguous typed piece of a message.
type Segment struct {
	Kind Kind
	// Language is the fence label; set only for Code segments.
	Language string
	// Content is the text to display. For Code segments trailing newlines
	// are stripped.
	Content string
	// Offset is the byte offset of Raw within the parsed input.
	Offset int
	// Raw is the exact input substring this segment was produced from.
	Raw string
}

// IsCode reports whether s is a fenced code block.
func (s Segment) IsCode() bool { return s.Kind == Code }

// Fenced returns the segment in fence syntax. Text segments are returned
// unchanged.
func (s Segment) Fenced() string {
	if s.Kind != Code {
		return s.Content
	}
	lang := s.Language
	if lang == DefaultLanguage {
		lang = ""
	}
	return fence + lang + "\n" + s.Content + "\n" + fence
}

// NewText builds a Text segment not tied to any parsed input.
func NewText(content string) Segment {
	return Segment{Kind: Text, Content: content, Raw: content}
}

// NewCode builds a Code segment not tied to any parsed input.
func NewCode(language, content string) Segment {
	if language == "" {
		language = DefaultLanguage
	}
	s := Segment{Kind: Code, Language: language, Content: content}
	s.Raw = s.Fenced()
	return s
}

type state int

const (
	scanning state = iota
	inFenceHeader
	inFenceBody
)

type parser struct {
	src   string
	st    state
	pos   int
	last  int // end of the previous emitted fence
	open  int // start of the candidate opener
	label int // end of the language identifier
	body  int // start of the fence body
	out   []Segment
}

// Parse splits text into segments. Empty input yields no segments.
func Parse(text string) []Segment {
	p := &parser{src: text}
	for p.step() {
	}
	p.flushText(len(text))
	return p.out
}

func (p *parser) step() bool {
	switch p.st {
	case scanning:
		i := strings.Index(p.src[p.pos:], fence)
		if i < 0 {
			return false
		}
		p.open = p.pos + i
		p.pos = p.open + len(fence)
		p.st = inFenceHeader

	case inFenceHeader:
		j := p.pos
		for j < len(p.src) && isWordByte(p.src[j]) {
			j++
		}
		if j < len(p.src) && p.src[j] == '\n' {
			p.label = j
			p.body = j + 1
			p.pos = p.body
			p.st = inFenceBody
			return true
		}
		// Not an opener; retry one byte past where this candidate began.
		p.pos = p.open + 1
		p.st = scanning

	case inFenceBody:
		k := strings.Index(p.src[p.pos:], fence)
		if k < 0 {
			// No closer anywhere after this opener, so no later opener can
			// close either.
			return false
		}
		p.emitCode(p.pos + k)
	}
	return true
}

func (p *parser) emitCode(closeAt int) {
	p.flushText(p.open)

	lang := p.src[p.open+len(fence) : p.label]
	if lang == "" {
		lang = DefaultLanguage
	}
	end := closeAt + len(fence)
	p.out = append(p.out, Segment{
		Kind:     Code,
		Language: lang,
		Content:  strings.TrimRight(p.src[p.body:closeAt], "\n"),
		Offset:   p.open,
		Raw:      p.src[p.open:end],
	})

	p.pos = end
	p.last = end
	p.st = scanning
}

func (p *parser) flushText(upTo int) {
	if upTo <= p.last {
		return
	}
	raw := p.src[p.last:upTo]
	p.out = append(p.out, Segment{Kind: Text, Content: raw, Offset: p.last, Raw: raw})
	p.last = upTo
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// Join concatenates the raw input of every segment, reconstructing the text
// the segments were parsed from.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// CodeBlocks returns only the Code segments, in order.
func CodeBlocks(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == Code {
			out = append(out, s)
		}
	}
	return out
}

// PlainText flattens segments back into readable text with code blocks in
// fence syntax.
func PlainText(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Fenced())
	}
	return b.String()
}
