// Package mailer is the outbound channel: it renders notification
// requests into final messages and performs the send through an email
// provider, one message at a time.
package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-eventrouter/app/entity"
	"github.com/vibast-solutions/ms-go-eventrouter/app/preparer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/provider"
	"github.com/vibast-solutions/ms-go-eventrouter/app/repository"
)

// Outcome is the per-recipient result of a send.
type Outcome struct {
	Recipient string
	Success   bool
	MessageID string
	Err       error
}

// Summary tallies bulk outcomes.
type Summary struct {
	Total   int
	Success int
	Failed  int
}

// BulkResult holds per-recipient outcomes in input order plus the tally.
type BulkResult struct {
	Outcomes []Outcome
	Summary  Summary
}

type Mailer struct {
	preparer preparer.EmailPreparer
	provider provider.EmailProvider
	history  *repository.DeliveryHistoryRepository
	log      *logrus.Entry
}

// NewMailer builds the outbound channel. history may be nil; delivery
// records are best-effort either way.
func NewMailer(emailPreparer preparer.EmailPreparer, emailProvider provider.EmailProvider, history *repository.DeliveryHistoryRepository) *Mailer {
	return &Mailer{
		preparer: emailPreparer,
		provider: emailProvider,
		history:  history,
		log:      logrus.WithField("component", "mailer"),
	}
}

// SendOne renders and sends a single notification. Render and transport
// failures come back as an unsuccessful outcome, never a panic or a
// batch abort.
func (m *Mailer) SendOne(ctx context.Context, req SendRequest) Outcome {
	outcome := Outcome{Recipient: req.To}

	content, err := resolveContent(req)
	if err != nil {
		outcome.Err = err
		m.record(ctx, req, outcome)
		return outcome
	}

	raw, err := m.preparer.Prepare(ctx, preparer.Message{
		Recipient: req.To,
		Subject:   content.Subject,
		Text:      content.Text,
		HTML:      content.HTML,
	})
	if err != nil {
		outcome.Err = err
		m.record(ctx, req, outcome)
		return outcome
	}

	messageID, err := m.provider.SendRaw(ctx, req.To, raw)
	if err != nil {
		outcome.Err = err
		m.record(ctx, req, outcome)
		return outcome
	}

	outcome.Success = true
	outcome.MessageID = messageID
	m.log.WithFields(logrus.Fields{"recipient": req.To, "message_id": messageID}).Info("email sent")
	m.record(ctx, req, outcome)
	return outcome
}

// SendBulk sends to each recipient strictly sequentially, bounding load
// on the transport; one failure never aborts the remaining sends.
func (m *Mailer) SendBulk(ctx context.Context, recipients []string, req SendRequest) BulkResult {
	result := BulkResult{Outcomes: make([]Outcome, 0, len(recipients))}
	for _, recipient := range recipients {
		single := req
		single.To = recipient
		outcome := m.SendOne(ctx, single)

		result.Outcomes = append(result.Outcomes, outcome)
		result.Summary.Total++
		if outcome.Success {
			result.Summary.Success++
		} else {
			result.Summary.Failed++
		}
	}
	return result
}

// record writes the delivery outcome to history. History failures are
// logged only; they never fail the send.
func (m *Mailer) record(ctx context.Context, req SendRequest, outcome Outcome) {
	if m.history == nil {
		return
	}

	status := entity.DeliveryStatusSent
	if !outcome.Success {
		status = entity.DeliveryStatusFailed
	}
	err := m.history.Record(ctx, entity.Delivery{
		MessageID: outcome.MessageID,
		Recipient: req.To,
		Subject:   req.Subject,
		Template:  req.Template,
		Status:    status,
	})
	if err != nil {
		m.log.WithError(err).WithField("recipient", req.To).Warn("delivery history write failed")
	}
}
