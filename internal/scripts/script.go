package scripts

import (
	"bytes"
	"fmt"
	"text/template"
)

// Script is a Lua payload destined for the peer.
type Script interface {
	// Name identifies the script in logs and errors ("display", "echo", "clear").
	Name() string

	// Template is Go text/template source producing the Lua chunk.
	Template() string

	// Params are the values substituted into Template.
	Params() map[string]interface{}

	// AwaitsResponse reports whether the peer prints a reply to this script.
	AwaitsResponse() bool
}

// Render executes the script template and returns the Lua payload.
func Render(s Script) (string, error) {
	tmpl, err := template.New(s.Name()).Option("missingkey=error").Parse(s.Template())
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", s.Name(), err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s.Params()); err != nil {
		return "", fmt.Errorf("failed to render %s script: %w", s.Name(), err)
	}

	return buf.String(), nil
}

// MustRender is Render for scripts whose templates are compiled into the binary.
func MustRender(s Script) string {
	out, err := Render(s)
	if err != nil {
		panic(err)
	}
	return out
}
