package compose

import (
	"bytes"
	"html/template"
)

// pageTableTmpl lays out one labeled row per rendered page. Zero pages yields
// an empty table body, which is valid HTML and keeps the text part authoritative.
var pageTableTmpl = template.Must(template.New("pages").Parse(`<html>
<body>
<p>{{.Intro}}</p>
<table border="0" cellpadding="8">
{{- range .Pages}}
<tr><td><b>Page {{.Number}}</b></td></tr>
<tr><td><img src="cid:{{.CID}}" alt="Page {{.Number}}"></td></tr>
{{- end}}
</table>
</body>
</html>
`))

var previewTmpl = template.Must(template.New("preview").Parse(`<html>
<body>
<p>{{.Intro}}</p>
<p><img src="cid:{{.CID}}" alt="Report preview"></p>
</body>
</html>
`))

// PageTableHTML renders the rich body for self-rendered messages: an intro
// line plus a table labeling every page image.
func PageTableHTML(intro string, pages []Page) (string, error) {
	var buf bytes.Buffer
	err := pageTableTmpl.Execute(&buf, struct {
		Intro string
		Pages []Page
	}{Intro: intro, Pages: pages})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PreviewHTML renders the rich body for pass-through messages with a single
// externally supplied preview image.
func PreviewHTML(intro, cid string) (string, error) {
	var buf bytes.Buffer
	err := previewTmpl.Execute(&buf, struct {
		Intro string
		CID   string
	}{Intro: intro, CID: cid})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
