package mailer

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Rendered is the output of a template: a subject line and message body
// derived from event data.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// EmailTemplate renders a named message from a data mapping.
type EmailTemplate struct {
	name    string
	subject *texttemplate.Template
	html    *htmltemplate.Template
}

// Render executes the template against data.
func (t *EmailTemplate) Render(data map[string]any) (Rendered, error) {
	if data == nil {
		data = map[string]any{}
	}

	var subject strings.Builder
	if err := t.subject.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("render subject of %s: %w", t.name, err)
	}

	var body strings.Builder
	if err := t.html.Execute(&body, data); err != nil {
		return Rendered{}, fmt.Errorf("render body of %s: %w", t.name, err)
	}

	return Rendered{Subject: subject.String(), HTML: body.String()}, nil
}

// The fixed template set. Names are part of the notification API and of
// the dispatcher's routing table.
const (
	TemplateWelcome             = "welcome"
	TemplateOrderConfirmation   = "orderConfirmation"
	TemplateOrderStatusUpdate   = "orderStatusUpdate"
	TemplatePaymentConfirmation = "paymentConfirmation"
)

var templates = map[string]*EmailTemplate{
	TemplateWelcome: mustTemplate(TemplateWelcome,
		"Welcome to our platform, {{.firstName}}!",
		`<h1>Welcome {{.firstName}}!</h1>
<p>Thank you for joining our platform. We're excited to have you on board!</p>
<p>Your account has been successfully created with email: {{.email}}</p>
<p>Happy shopping!</p>`),
	TemplateOrderConfirmation: mustTemplate(TemplateOrderConfirmation,
		"Order Confirmation - #{{.orderId}}",
		`<h1>Order Confirmed!</h1>
<p>Thank you for your order. Here are the details:</p>
<p><strong>Order ID:</strong> {{.orderId}}</p>
<p><strong>Total Amount:</strong> ${{.totalAmount}}</p>
<p><strong>Status:</strong> {{.status}}</p>
<p>We'll send you updates as your order is processed.</p>`),
	TemplateOrderStatusUpdate: mustTemplate(TemplateOrderStatusUpdate,
		"Order Status Update - #{{.orderId}}",
		`<h1>Order Status Update</h1>
<p>Your order status has been updated:</p>
<p><strong>Order ID:</strong> {{.orderId}}</p>
<p><strong>New Status:</strong> {{.status}}</p>
<p>Thank you for your patience!</p>`),
	TemplatePaymentConfirmation: mustTemplate(TemplatePaymentConfirmation,
		"Payment Confirmed - #{{.orderId}}",
		`<h1>Payment Confirmed!</h1>
<p>We've received your payment for order #{{.orderId}}.</p>
<p><strong>Amount:</strong> ${{.amount}}</p>
<p><strong>Transaction ID:</strong> {{.transactionId}}</p>
<p>Your order is now being processed.</p>`),
}

// ResolveTemplate looks up a template by name. An unknown name is not an
// error; callers fall back to explicit subject/body fields.
func ResolveTemplate(name string) (*EmailTemplate, bool) {
	t, ok := templates[name]
	return t, ok
}

func mustTemplate(name, subject, html string) *EmailTemplate {
	return &EmailTemplate{
		name:    name,
		subject: texttemplate.Must(texttemplate.New(name + ":subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + ":html").Parse(html)),
	}
}
