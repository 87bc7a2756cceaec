package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const QueueName = "audit_queue"

// Recorder accepts audit entries. Recording is fire-and-forget: failures are
// logged by the implementation and never surface to the caller, so an audit
// outage cannot roll back the mutation it describes.
type Recorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

// AMQPRecorder publishes entries to the audit queue; the worker persists them.
type AMQPRecorder struct {
	channel        *amqp.Channel
	publishTimeout time.Duration
}

func NewAMQPRecorder(ch *amqp.Channel, publishTimeout time.Duration) *AMQPRecorder {
	return &AMQPRecorder{
		channel:        ch,
		publishTimeout: publishTimeout,
	}
}

func (r *AMQPRecorder) Record(_ context.Context, entry domain.AuditEntry) {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	body, err := json.Marshal(entry)
	if err != nil {
		slog.Error("failed to encode audit entry", "action", entry.Action, "error", err)
		return
	}

	// Deliberately detached from the request context: the entry should still
	// go out when the caller's request has already been aborted.
	ctx, cancel := context.WithTimeout(context.Background(), r.publishTimeout)
	defer cancel()

	if err := r.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		slog.Error("failed to publish audit entry", "action", entry.Action, "entityId", entry.EntityID, "error", err)
	}
}

// Nop discards every entry. Used in tests and tooling.
type Nop struct{}

func (Nop) Record(context.Context, domain.AuditEntry) {}

// JSON marshals v for an entry's old/new snapshots; encoding failures yield
// a JSON null rather than an error, keeping audit emission infallible.
func JSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
