package render

import (
	"bytes"
	"html/template"

	"github.com/linanwx/tutorbot/logger"
)

var htmlTemplates = template.Must(template.New("render").Parse(`
{{- define "message" -}}
<div class="msg-wrap {{.Sender.Class}}" id="m-{{.ID}}">
{{- range .Parts -}}
{{- if eq . "avatar" -}}
<div class="avatar">{{$.Sender.Avatar}}</div>
{{- else -}}
<div class="msg {{$.Sender.Class}}">
{{- range $.Blocks -}}
{{- if .Action -}}
<div class="code-block"><div class="code-head"><span>{{.Segment.Language}}</span><button type="button" data-action="{{.Action.Kind}}" data-action-id="{{.Action.ID}}">Copy</button></div><pre><code>{{.Segment.Content}}</code></pre></div>
{{- else -}}
<span>{{.Segment.Content}}</span>
{{- end -}}
{{- end -}}
</div>
{{- end -}}
{{- end -}}
</div>
{{- with .Annotation}}<div class="tool">{{.}}</div>{{end -}}
{{- end -}}

{{- define "pending" -}}
<div class="msg-wrap bot" id="{{.}}"><div class="avatar">🤖</div><div class="msg bot"><div class="typing"><span class="dot"></span><span class="dot"></span><span class="dot"></span></div></div></div>
{{- end -}}

{{- define "tabs" -}}
{{- range .Subjects -}}
<button type="button" class="tab{{if eq . $.Active}} active{{end}}" data-subject="{{.}}">{{.}}</button>
{{- end -}}
{{- end -}}
`))

type messageView struct {
	ID         string
	Sender     Sender
	Parts      []Part
	Blocks     []Block
	Annotation string
}

// HTML renders m as a widget message entry. Text is always escaped.
func HTML(m Message) template.HTML {
	return execHTML("message", messageView{
		ID:         m.ID,
		Sender:     m.Sender,
		Parts:      m.Parts(),
		Blocks:     m.Blocks(),
		Annotation: m.Annotation(),
	}, m.Text())
}

// PendingHTML renders the typing indicator shown while a reply is in flight.
func PendingHTML(id string) template.HTML {
	return execHTML("pending", id, "")
}

// TabsHTML renders the subject selector with active marked.
func TabsHTML(subjects []string, active string) template.HTML {
	return execHTML("tabs", struct {
		Subjects []string
		Active   string
	}{subjects, active}, "")
}

func execHTML(name string, data any, fallback string) template.HTML {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("render html failed", "template", name, "err", err)
		return template.HTML(template.HTMLEscapeString(fallback))
	}
	return template.HTML(buf.String())
}
