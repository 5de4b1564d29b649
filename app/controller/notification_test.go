package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-eventrouter/app/entity"
	"github.com/vibast-solutions/ms-go-eventrouter/app/mailer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/preparer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/repository"
)

type noopPreparer struct{}

func (p noopPreparer) Prepare(_ context.Context, _ preparer.Message) ([]byte, error) {
	return []byte("raw"), nil
}

type fakeProvider struct {
	failFor map[string]error
}

func (p *fakeProvider) SendRaw(_ context.Context, recipient string, _ []byte) (string, error) {
	if err, ok := p.failFor[recipient]; ok {
		return "", err
	}
	return "mid-" + recipient, nil
}

func newTestController(prov *fakeProvider) *NotificationController {
	return NewNotificationController(mailer.NewMailer(noopPreparer{}, prov, nil), nil)
}

func postJSON(t *testing.T, e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSendEmailSuccess(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(&fakeProvider{})
	e := echo.New()

	body := `{"to":"ada@example.com","subject":"Welcome","template":"welcome","data":{"firstName":"Ada","email":"ada@example.com"}}`
	ctx, rec := postJSON(t, e, "/api/notifications/email", body)

	if err := ctrl.SendEmail(ctx); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["message"] != "Email sent successfully" {
		t.Fatalf("unexpected message %q", resp["message"])
	}
	if resp["messageId"] == "" {
		t.Fatal("expected a messageId")
	}
}

func TestSendEmailValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid recipient", `{"to":"not-an-address","subject":"hi","text":"body"}`},
		{"missing subject", `{"to":"a@b.com","text":"body"}`},
		{"no content source", `{"to":"a@b.com","subject":"hi"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := newTestController(&fakeProvider{})
			ctx, rec := postJSON(t, echo.New(), "/api/notifications/email", tc.body)

			if err := ctrl.SendEmail(ctx); err != nil {
				t.Fatalf("SendEmail: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSendEmailTransportFailure(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(&fakeProvider{failFor: map[string]error{"a@b.com": errors.New("relay down")}})
	ctx, rec := postJSON(t, echo.New(), "/api/notifications/email", `{"to":"a@b.com","subject":"hi","text":"body"}`)

	if err := ctrl.SendEmail(ctx); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSendBulkEmailPartialFailure(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(&fakeProvider{failFor: map[string]error{"b@b.com": errors.New("mailbox unavailable")}})
	body := `{"recipients":["a@b.com","b@b.com","c@b.com"],"subject":"hi","text":"body"}`
	ctx, rec := postJSON(t, echo.New(), "/api/notifications/email/bulk", body)

	if err := ctrl.SendBulkEmail(ctx); err != nil {
		t.Fatalf("SendBulkEmail: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		Results []struct {
			Recipient string `json:"recipient"`
			Success   bool   `json:"success"`
			MessageID string `json:"messageId"`
			Error     string `json:"error"`
		} `json:"results"`
		Summary struct {
			Total   int `json:"total"`
			Success int `json:"success"`
			Failed  int `json:"failed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Summary.Total != 3 || resp.Summary.Success != 2 || resp.Summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", resp.Summary)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	if resp.Results[1].Recipient != "b@b.com" || resp.Results[1].Success {
		t.Fatalf("expected ordered failure for b@b.com, got %+v", resp.Results[1])
	}
	if resp.Results[1].Error == "" {
		t.Fatal("expected error detail for failed recipient")
	}
	if resp.Results[0].MessageID == "" || resp.Results[2].MessageID == "" {
		t.Fatal("expected message ids for successful recipients")
	}
	if resp.Message != "Bulk email completed: 2 sent, 1 failed" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestSendBulkEmailValidation(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(&fakeProvider{})
	ctx, rec := postJSON(t, echo.New(), "/api/notifications/email/bulk", `{"recipients":[],"subject":"hi","text":"body"}`)

	if err := ctrl.SendBulkEmail(ctx); err != nil {
		t.Fatalf("SendBulkEmail: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(&fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := ctrl.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "OK" || resp["timestamp"] == "" {
		t.Fatalf("unexpected health payload %v", resp)
	}
}

func TestHealthReportsFailedDeliveries(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(entity.DeliveryStatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	history := repository.NewDeliveryHistoryRepository(db)
	ctrl := NewNotificationController(mailer.NewMailer(noopPreparer{}, &fakeProvider{}, history), history)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := ctrl.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status           string `json:"status"`
		FailedDeliveries *int   `json:"failedDeliveries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if resp.FailedDeliveries == nil || *resp.FailedDeliveries != 4 {
		t.Fatalf("expected 4 failed deliveries in payload, got %v", resp.FailedDeliveries)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHealthStaysOKWhenCountQueryFails(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(entity.DeliveryStatusFailed).
		WillReturnError(errors.New("connection lost"))

	history := repository.NewDeliveryHistoryRepository(db)
	ctrl := NewNotificationController(mailer.NewMailer(noopPreparer{}, &fakeProvider{}, history), history)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := ctrl.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "OK" {
		t.Fatalf("unexpected status %v", resp["status"])
	}
	if _, ok := resp["failedDeliveries"]; ok {
		t.Fatal("expected counter omitted when the query fails")
	}
}
