package httpapi

import (
	"embed"
	"html/template"
)

//go:embed assets/index.html.tmpl
var embeddedAssets embed.FS

var indexTmpl = template.Must(template.ParseFS(embeddedAssets, "assets/index.html.tmpl"))
