package handlers

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Templates parses the embedded view templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFiles, "templates/*.html")
}
