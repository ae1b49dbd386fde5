// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/enconsulting/projectdesk/internal/logging"
)

// topicPasswordReset carries queued reset mails from handlers to the
// outbox worker.
const topicPasswordReset = "mail.password_reset"

// resetMail is the outbox message payload.
type resetMail struct {
	Email   string    `json:"email"`
	Code    string    `json:"code"`
	Expires time.Time `json:"expires"`
}

// Outbox decouples mail enqueueing from delivery with an in-process
// Watermill pub/sub. It implements auth.ResetNotifier.
type Outbox struct {
	pubsub *gochannel.GoChannel
	sender Sender
}

// NewOutbox creates an outbox draining into sender.
func NewOutbox(sender Sender) *Outbox {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logging.NewWatermillLogger())

	return &Outbox{pubsub: pubsub, sender: sender}
}

// EnqueuePasswordReset queues a reset mail for delivery. It returns as
// soon as the message is on the bus; delivery happens in Run.
func (o *Outbox) EnqueuePasswordReset(ctx context.Context, email, code string, expires time.Time) error {
	payload, err := json.Marshal(resetMail{Email: email, Code: code, Expires: expires})
	if err != nil {
		return fmt.Errorf("enqueue password reset: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := o.pubsub.Publish(topicPasswordReset, msg); err != nil {
		return fmt.Errorf("enqueue password reset: %w", err)
	}

	RecordEnqueued()
	return nil
}

// Run drains the outbox until ctx is canceled. The supervisor runs this
// as a service. Delivery is best effort: a failed send is logged and
// counted, not retried, because the user can always request a new code.
func (o *Outbox) Run(ctx context.Context) error {
	messages, err := o.pubsub.Subscribe(ctx, topicPasswordReset)
	if err != nil {
		return fmt.Errorf("outbox subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			o.deliver(ctx, msg)
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var mail resetMail
	if err := json.Unmarshal(msg.Payload, &mail); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("malformed outbox message dropped")
		RecordDelivery("malformed")
		return
	}

	if err := o.sender.SendPasswordReset(ctx, mail.Email, mail.Code, mail.Expires); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("password reset mail delivery failed")
		RecordDelivery("failed")
		return
	}

	logging.Debug().Str("message_id", msg.UUID).Msg("password reset mail delivered")
	RecordDelivery("delivered")
}

// Close shuts down the pub/sub, releasing subscriber channels.
func (o *Outbox) Close() error {
	return o.pubsub.Close()
}
