package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-eventrouter/app/dto"
	"github.com/vibast-solutions/ms-go-eventrouter/app/entity"
	"github.com/vibast-solutions/ms-go-eventrouter/app/mailer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/repository"
)

type NotificationController struct {
	mailer  *mailer.Mailer
	history *repository.DeliveryHistoryRepository
}

// NewNotificationController constructs the HTTP notification controller.
// history may be nil; the health payload then omits delivery counters.
func NewNotificationController(m *mailer.Mailer, history *repository.DeliveryHistoryRepository) *NotificationController {
	return &NotificationController{mailer: m, history: history}
}

// SendEmail sends a single email notification.
func (c *NotificationController) SendEmail(ctx echo.Context) error {
	req, err := dto.SendEmailFromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	outcome := c.mailer.SendOne(ctx.Request().Context(), mailer.SendRequest{
		To:       req.To,
		Subject:  req.Subject,
		Text:     req.Text,
		HTML:     req.HTML,
		Template: req.Template,
		Data:     req.Data,
	})
	if !outcome.Success {
		if errors.Is(outcome.Err, mailer.ErrEmptyContent) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": outcome.Err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to send email"})
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message":   "Email sent successfully",
		"messageId": outcome.MessageID,
	})
}

// SendBulkEmail sends the same notification to each recipient in order.
func (c *NotificationController) SendBulkEmail(ctx echo.Context) error {
	req, err := dto.SendBulkEmailFromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result := c.mailer.SendBulk(ctx.Request().Context(), req.Recipients, mailer.SendRequest{
		Subject:  req.Subject,
		Text:     req.Text,
		HTML:     req.HTML,
		Template: req.Template,
		Data:     req.Data,
	})

	results := make([]map[string]any, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		entry := map[string]any{
			"recipient": outcome.Recipient,
			"success":   outcome.Success,
		}
		if outcome.Success {
			entry["messageId"] = outcome.MessageID
		} else {
			entry["error"] = outcome.Err.Error()
		}
		results = append(results, entry)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Bulk email completed: %d sent, %d failed", result.Summary.Success, result.Summary.Failed),
		"results": results,
		"summary": map[string]int{
			"total":   result.Summary.Total,
			"success": result.Summary.Success,
			"failed":  result.Summary.Failed,
		},
	})
}

// Health reports service liveness plus the failed-delivery count when
// history is wired. A failing count query does not degrade liveness.
func (c *NotificationController) Health(ctx echo.Context) error {
	payload := map[string]any{
		"status":    "OK",
		"service":   "Notification Service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if c.history != nil {
		if failed, err := c.history.CountByStatus(ctx.Request().Context(), entity.DeliveryStatusFailed); err == nil {
			payload["failedDeliveries"] = failed
		}
	}
	return ctx.JSON(http.StatusOK, payload)
}
