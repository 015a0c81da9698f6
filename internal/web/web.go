// Package web holds the embedded HTML pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"fullName": func(first, last string) string {
		if last == "" {
			return first
		}
		return first + " " + last
	},
}

// Templates parses every page. Each template is named by its file name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for package initialization and tests.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
