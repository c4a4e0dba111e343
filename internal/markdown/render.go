package markdown

import (
	"bytes"
	"html/template"
)

// nodeTemplate renders a parsed tree. Every text value goes through
// html/template escaping.
var nodeTemplate = template.Must(template.New("nodes").Parse(`
{{- define "nodes"}}{{range .}}{{template "node" .}}{{end}}{{end -}}
{{- define "node"}}
{{- if eq .Kind "text"}}{{.Text}}
{{- else if eq .Kind "strong"}}<strong>{{template "nodes" .Children}}</strong>
{{- else if eq .Kind "em"}}<em>{{template "nodes" .Children}}</em>
{{- else if eq .Kind "br"}}<br>
{{- else if eq .Kind "list"}}{{if .Ordered}}<ol>{{else}}<ul>{{end}}{{template "nodes" .Children}}{{if .Ordered}}</ol>{{else}}</ul>{{end}}
{{- else if eq .Kind "item"}}<li>{{template "nodes" .Children}}</li>
{{- end}}
{{- end -}}
`))

// Render parses src and renders it as safe HTML.
func Render(src string) (template.HTML, error) {
	return RenderNodes(Parse(src))
}

// RenderNodes renders an already parsed tree.
func RenderNodes(nodes []*Node) (template.HTML, error) {
	var buf bytes.Buffer
	if err := nodeTemplate.ExecuteTemplate(&buf, "nodes", nodes); err != nil {
		return "", err
	}
	// The buffer was produced by html/template, so its content is escaped.
	return template.HTML(buf.String()), nil
}

// FuncMap exposes the renderer to page templates as "markdown".
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": func(src string) (template.HTML, error) {
			return Render(src)
		},
	}
}
