package main

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/pkg/errors"

	"github.com/pure-golang/zeptomail/logger"
	"github.com/pure-golang/zeptomail/mail"
	"github.com/pure-golang/zeptomail/mail/zeptomail"
	"github.com/pure-golang/zeptomail/webhook"
)

type notifyConfig struct {
	To       string `envconfig:"BOUNCE_NOTIFY_TO"`
	From     string `envconfig:"BOUNCE_NOTIFY_FROM"`
	FromName string `envconfig:"BOUNCE_NOTIFY_FROM_NAME" default:"Bounce monitor"`
}

func (c notifyConfig) enabled() bool {
	return c.To != "" && c.From != ""
}

// bounceNotifier reports hard bounces to an operator address. Soft bounces
// are only logged.
type bounceNotifier struct {
	sender mail.Sender
	cfg    notifyConfig
}

func newBounceNotifier(sender mail.Sender, cfg notifyConfig) *bounceNotifier {
	return &bounceNotifier{sender: sender, cfg: cfg}
}

func (n *bounceNotifier) Handle(ctx context.Context, ev *webhook.BounceEvent) error {
	if err := logBounce(ctx, ev); err != nil {
		return err
	}
	if !ev.Hard {
		return nil
	}

	resp, err := n.sender.Send(ctx, n.params(ev))
	if err != nil {
		return errors.Wrap(err, "failed to send bounce notification")
	}
	if apiErr, ok := zeptomail.ParseError(resp); ok {
		return errors.Wrap(apiErr, "bounce notification rejected")
	}

	logger.FromContext(ctx).Debug("bounce notification sent", "request_id", zeptomail.RequestID(resp))
	return nil
}

func (n *bounceNotifier) params(ev *webhook.BounceEvent) mail.SendParams {
	subject := fmt.Sprintf("Hard bounce: %s", ev.Recipient)

	var text strings.Builder
	fmt.Fprintf(&text, "Recipient: %s\n", ev.Recipient)
	fmt.Fprintf(&text, "Reason: %s\n", ev.Reason)
	if ev.DiagnosticMessage != "" {
		fmt.Fprintf(&text, "Diagnostic: %s\n", ev.DiagnosticMessage)
	}
	if ev.Email.Subject != "" {
		fmt.Fprintf(&text, "Original subject: %s\n", ev.Email.Subject)
	}

	return mail.SendParams{
		Params: mail.Params{
			FromAddress:     n.cfg.From,
			FromName:        n.cfg.FromName,
			To:              []mail.Recipient{mail.NewRecipient(n.cfg.To, "")},
			Subject:         subject,
			TextBody:        text.String(),
			HTMLBody:        "<pre>" + html.EscapeString(text.String()) + "</pre>",
			TrackClicks:     mail.Bool(false),
			TrackOpens:      mail.Bool(false),
			ClientReference: ev.Email.ClientReference,
			MimeHeaders:     map[string]string{"X-Bounce-Delivery": ev.DeliveryID},
		},
	}
}
