// Package tmpl provides template rendering utilities for user-configured
// message formats.
package tmpl

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"quote": strconv.Quote,
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"default": func(def string, s any) string {
		if str := fmt.Sprint(s); str != "" {
			return str
		}
		return def
	},
}

// Parse compiles tmpl with the package functions. Missing keys are errors
// at execution time.
func Parse(tmpl string) (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - quote: Go-quote a string (e.g., {{ quote .Title }})
//   - join: Join string slice with separator (e.g., join .Teams ", ")
//   - upper, lower: Change case
//   - default: Fall back to a value when empty (e.g., {{ .Name | default "nobody" }})
func Render(tmpl string, data any) (string, error) {
	t, err := Parse(tmpl)
	if err != nil {
		return "", err
	}
	return Execute(t, data)
}

// Execute runs a parsed template with the given data.
func Execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
