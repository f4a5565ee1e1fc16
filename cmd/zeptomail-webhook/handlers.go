package main

import (
	"context"

	"github.com/pure-golang/zeptomail/logger"
	"github.com/pure-golang/zeptomail/webhook"
)

func logBounce(ctx context.Context, ev *webhook.BounceEvent) error {
	logger.FromContext(ctx).Warn("email bounced",
		"hard", ev.Hard,
		"recipient", ev.Recipient,
		"reason", ev.Reason,
		"client_reference", ev.Email.ClientReference,
	)
	return nil
}

func logOpen(ctx context.Context, ev *webhook.OpenEvent) error {
	logger.FromContext(ctx).Info("email opened",
		"client_reference", ev.Email.ClientReference,
		"device_type", ev.DeviceType,
		"email_client", ev.EmailClient.Name,
	)
	return nil
}

func logClick(ctx context.Context, ev *webhook.ClickEvent) error {
	logger.FromContext(ctx).Info("link clicked",
		"client_reference", ev.Email.ClientReference,
		"link", ev.Link,
	)
	return nil
}

func logUnknown(ctx context.Context, ev webhook.Event) error {
	logger.FromContext(ctx).Info("unhandled event", "object", string(ev.Type()))
	return nil
}
