package engine

import (
	"bytes"
	"fmt"
	"text/template"
)

// Default message texts used when the configuration leaves them empty.
const (
	DefaultPromptTitle       = "Color print job"
	DefaultPromptDescription = "Consider printing in grayscale to reduce costs"

	DefaultPromptMessage = "<html>This print job is <span style='color:red'><b>color</b></span>" +
		" and costs <b>{{.Cost}}</b>.  You can save money by printing the job in grayscale.<br><br>" +
		"Do you want to print this job?</html>"

	DefaultRedirectNotice = "The print job was over {{.Limit}} pages and was sent to  printer: {{.Target}}."

	DefaultRedirectLog = "Large job redirected from printer '{{.Source}}' to printer '{{.Target}}'."
)

// MessageData is the data available to message templates.
type MessageData struct {
	// Cost is the job cost rendered by the cost formatter.
	Cost string

	// Pages is the total page count.
	Pages int

	// Limit is the configured page limit.
	Limit int

	// Source is the printer the job was submitted to.
	Source string

	// Target is the high-volume printer.
	Target string

	// Identity metadata.
	User     string
	JobID    string
	Document string
}

// sampleMessageData stands in for a real job when templates are checked at
// construction, so branches taken only on populated fields are executed too.
var sampleMessageData = MessageData{
	Cost:     "$12.34",
	Pages:    DefaultPageLimit + 1,
	Limit:    DefaultPageLimit,
	Source:   "Front Office",
	Target:   DefaultHighVolumePrinter,
	User:     "jdoe",
	JobID:    "1234",
	Document: "report.pdf",
}

// Fallbacks for the volume rule when a configured text fails on a real job.
var (
	fallbackRedirectNotice = template.Must(template.New("default.redirect_notice").Parse(DefaultRedirectNotice))
	fallbackRedirectLog    = template.Must(template.New("default.redirect_log").Parse(DefaultRedirectLog))
)

// templateFields lists every configurable message template with its config key.
func templateFields(c *Config) []struct{ field, text string } {
	return []struct{ field, text string }{
		{"prompt.message", c.Prompt.Message},
		{"messages.redirect_notice", c.Messages.RedirectNotice},
		{"messages.redirect_log", c.Messages.RedirectLog},
	}
}

// compileTemplate parses text and executes it against an empty and a
// populated MessageData. Unknown fields and data-dependent execution errors
// are reported as a *ConfigError.
func compileTemplate(field, text string) (*template.Template, error) {
	tmpl, err := template.New(field).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &ConfigError{Field: field, Message: err.Error()}
	}
	for _, data := range []MessageData{{}, sampleMessageData} {
		if _, err := render(tmpl, data); err != nil {
			return nil, &ConfigError{Field: field, Message: err.Error()}
		}
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
