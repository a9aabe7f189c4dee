package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// NATSPublisher fans survey lifecycle events out on
// {prefix}.lifecycle.{message_reason} subjects.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn *nats.Conn, subjectPrefix string) *NATSPublisher {
	if subjectPrefix == "" {
		subjectPrefix = "surveys"
	}
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, event ports.LifecycleEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "encode lifecycle event")
	}

	subject := fmt.Sprintf("%s.lifecycle.%s", p.subjectPrefix, event.MessageReason)
	if err := p.conn.Publish(subject, payload); err != nil {
		return errs.Wrapf(err, "publish lifecycle event to %s", subject)
	}
	return nil
}

// NoopPublisher is used when no message bus is configured.
type NoopPublisher struct{}

var _ ports.EventPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, ports.LifecycleEvent) error { return nil }
