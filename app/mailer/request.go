package mailer

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is a render failure: neither a resolvable template nor
// explicit subject/body fields were supplied.
var ErrEmptyContent = errors.New("no content source resolves")

// SendRequest describes one outbound notification. A resolvable Template
// fully replaces any explicit Subject/Text/HTML fields; the explicit
// fields apply only when Template is absent or unknown.
type SendRequest struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Template string
	Data     map[string]any
}

// resolveContent applies the template precedence rules and returns the
// final subject and body.
func resolveContent(req SendRequest) (Rendered, error) {
	if req.Template != "" {
		if tmpl, ok := ResolveTemplate(req.Template); ok {
			rendered, err := tmpl.Render(req.Data)
			if err != nil {
				return Rendered{}, fmt.Errorf("template %s: %w", req.Template, err)
			}
			return rendered, nil
		}
		// Unknown template name is not an error; fall through to the
		// explicit fields.
	}

	if req.Text == "" && req.HTML == "" {
		return Rendered{}, ErrEmptyContent
	}
	return Rendered{Subject: req.Subject, Text: req.Text, HTML: req.HTML}, nil
}
