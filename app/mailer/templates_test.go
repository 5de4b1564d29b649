package mailer

import (
	"strings"
	"testing"
)

func TestResolveTemplateKnownNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		TemplateWelcome,
		TemplateOrderConfirmation,
		TemplateOrderStatusUpdate,
		TemplatePaymentConfirmation,
	} {
		if _, ok := ResolveTemplate(name); !ok {
			t.Fatalf("expected template %s to resolve", name)
		}
	}

	if _, ok := ResolveTemplate("passwordReset"); ok {
		t.Fatal("unknown template must not resolve")
	}
}

func TestWelcomeTemplateRender(t *testing.T) {
	t.Parallel()

	tmpl, ok := ResolveTemplate(TemplateWelcome)
	if !ok {
		t.Fatal("welcome template missing")
	}

	rendered, err := tmpl.Render(map[string]any{"firstName": "Ada", "email": "ada@example.com"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rendered.Subject != "Welcome to our platform, Ada!" {
		t.Fatalf("unexpected subject %q", rendered.Subject)
	}
	if !strings.Contains(rendered.HTML, "Welcome Ada!") {
		t.Fatalf("expected greeting in body, got %q", rendered.HTML)
	}
	if !strings.Contains(rendered.HTML, "ada@example.com") {
		t.Fatalf("expected email in body, got %q", rendered.HTML)
	}
}

func TestOrderTemplatesRender(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"orderId":       "o-42",
		"totalAmount":   "99.90",
		"amount":        "99.90",
		"status":        "shipped",
		"transactionId": "tx-7",
	}

	tests := []struct {
		template    string
		wantSubject string
		wantInBody  string
	}{
		{TemplateOrderConfirmation, "Order Confirmation - #o-42", "Order Confirmed!"},
		{TemplateOrderStatusUpdate, "Order Status Update - #o-42", "shipped"},
		{TemplatePaymentConfirmation, "Payment Confirmed - #o-42", "tx-7"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.template, func(t *testing.T) {
			t.Parallel()

			tmpl, ok := ResolveTemplate(tc.template)
			if !ok {
				t.Fatalf("template %s missing", tc.template)
			}
			rendered, err := tmpl.Render(data)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if rendered.Subject != tc.wantSubject {
				t.Fatalf("subject %q, want %q", rendered.Subject, tc.wantSubject)
			}
			if !strings.Contains(rendered.HTML, tc.wantInBody) {
				t.Fatalf("expected %q in body %q", tc.wantInBody, rendered.HTML)
			}
		})
	}
}

func TestTemplateRenderHandlesMissingData(t *testing.T) {
	t.Parallel()

	tmpl, _ := ResolveTemplate(TemplateWelcome)
	rendered, err := tmpl.Render(nil)
	if err != nil {
		t.Fatalf("Render with nil data: %v", err)
	}
	if rendered.Subject == "" {
		t.Fatal("expected a subject even without data")
	}
}
