package advisor

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// Case is an inconclusive request handed to the advisor.
type Case struct {
	Record   core.RequestRecord
	Evidence core.EvidenceSet

	RuleName        string
	RuleDescription string

	// Fields are the fields the rule table could not judge.
	Fields []string
}

type promptData struct {
	Case
	Precedents []core.Precedent
}

const defaultPrompt = `You decide whether an HR request is approved.

Category: {{ .Record.Category }}
{{- with .RuleDescription }}
Policy: {{ . }}
{{- end }}
Request reason: {{ .Record.Reason }}

Detected fields:
{{- range .Evidence.Fields }}
- {{ .Field }}: {{ if .Present }}found "{{ .Match }}"{{ else }}not found{{ end }}
{{- end }}
{{- with .Fields }}
Undecided fields: {{ join . ", " }}
{{- end }}
{{ if .Precedents }}
Similar past decisions:
{{- range .Precedents }}
- [{{ .Example.Category }}] "{{ .Example.Reason }}" => {{ .Example.Outcome }} (similarity {{ score .Score }})
{{- end }}
{{ end }}
Answer with exactly two lines and nothing else:
Decision: <Approved|Rejected|Held>
Reason: <one sentence naming the deciding fields>
`

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"join":  strings.Join,
	"score": func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).Parse(defaultPrompt))

// RenderPrompt renders the prompt for c with the given precedents.
func RenderPrompt(c Case, precedents []core.Precedent) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, promptData{Case: c, Precedents: precedents}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}
