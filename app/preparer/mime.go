package preparer

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

type MIMEPreparer struct {
	source string
}

// NewMIMEPreparer creates a preparer that assembles the raw MIME message
// from the message parts. Messages carrying both a text and an HTML part
// become multipart/alternative; single-part messages keep a flat body.
func NewMIMEPreparer(source string) *MIMEPreparer {
	return &MIMEPreparer{source: source}
}

// Prepare builds the raw message with headers.
func (p *MIMEPreparer) Prepare(_ context.Context, msg *Message) error {
	if strings.TrimSpace(p.source) == "" {
		return fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	if msg.Text == "" && msg.HTML == "" {
		return fmt.Errorf("message body is required")
	}

	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(p.source)
	b.WriteString("\r\n")
	b.WriteString("To: ")
	b.WriteString(msg.Recipient)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(msg.Subject)
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.Text != "" && msg.HTML != "":
		if err := writeAlternative(&b, msg); err != nil {
			return err
		}
	case msg.HTML != "":
		writeFlat(&b, "text/html", msg.HTML)
	default:
		writeFlat(&b, "text/plain", msg.Text)
	}

	msg.Raw = []byte(b.String())
	return nil
}

func writeFlat(b *strings.Builder, contentType, body string) {
	b.WriteString("Content-Type: ")
	b.WriteString(contentType)
	b.WriteString("; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
}

func writeAlternative(b *strings.Builder, msg *Message) error {
	var parts strings.Builder
	w := multipart.NewWriter(&parts)

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	} {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", part.contentType+"; charset=UTF-8")
		header.Set("Content-Transfer-Encoding", "7bit")
		pw, err := w.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create %s part: %w", part.contentType, err)
		}
		if _, err := pw.Write([]byte(part.body)); err != nil {
			return fmt.Errorf("write %s part: %w", part.contentType, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	b.WriteString("Content-Type: multipart/alternative; boundary=")
	b.WriteString(w.Boundary())
	b.WriteString("\r\n\r\n")
	b.WriteString(parts.String())
	return nil
}
