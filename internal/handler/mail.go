package handler

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const emailQueueName = "email_queue"

func (h *Handler) enqueueMail(msg domain.MailMessage) error {
	if h.queueChannel == nil {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.queueChannel.PublishWithContext(ctx, "", emailQueueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
