package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/config"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/repository"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// The worker drains two queues: email_queue becomes outgoing SMTP mail, and
// the audit queue becomes rows in audit_logs.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return
	}

	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("failed to create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("failed to connect to mail server", slog.String("error", err.Error()))
		return
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open rabbitmq channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	for _, queue := range []string{"email_queue", audit.QueueName} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			logger.Error("failed to declare queue", "queue", queue, slog.String("error", err.Error()))
			return
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	mails, err := ch.Consume("email_queue", "", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to consume email queue", slog.String("error", err.Error()))
		os.Exit(1)
	}
	audits, err := ch.Consume(audit.QueueName, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to consume audit queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-mails:
				handleMailMessage(logger, cfg, client, msg)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-audits:
				handleAuditMessage(ctx, logger, repo, msg)
			}
		}
	}()

	logger.Info("waiting for messages... (CTRL+C to quit)")
	<-sigChan

	slog.Info("shutting down worker...")
	cancel()
	wg.Wait()
	slog.Info("worker stopped")
}

func handleMailMessage(logger *slog.Logger, cfg *config.Config, client *mail.Client, msg amqp.Delivery) {
	logger.Info("mail message received", slog.String("message", string(msg.Body)))

	mailMessage := domain.MailMessage{}
	if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
		logger.Error("failed to decode mail message", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		logger.Error("failed to set mail sender", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.To(mailMessage.To); err != nil {
		logger.Error("failed to set mail recipient", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	subject, body, err := renderMail(msg.Body, mailMessage.Type)
	if err != nil {
		logger.Error("failed to render mail", slog.String("type", mailMessage.Type), slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	if err := client.DialAndSend(m); err != nil {
		logger.Error("failed to send mail", slog.String("error", err.Error()))
		_ = msg.Nack(false, true) // requeue, the SMTP server may come back
		return
	}

	_ = msg.Ack(false)
}

// renderMail re-decodes the raw message into the type-specific data struct
// and produces a subject and a plain-text body.
func renderMail(raw []byte, mailType string) (string, string, error) {
	switch mailType {
	case "create_user":
		var msg struct {
			Data domain.CreateUserMailData `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return "", "", err
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nAn account has been created for you.\n\nUsername: %s\nPassword: %s\n\nPlease log in and change your password.\n",
			msg.Data.FullName, msg.Data.Username, msg.Data.Password,
		)
		return "Shiftline - your account", body, nil
	case "reset_password":
		var msg struct {
			Data domain.ResetPasswordMailData `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return "", "", err
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\nIf you did not request this, you can ignore this email.\n",
			msg.Data.FullName, msg.Data.OTP, msg.Data.Expiration,
		)
		return "Shiftline - password reset", body, nil
	case "shift_published":
		var msg struct {
			Data domain.ShiftPublishedMailData `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return "", "", err
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nA shift you are assigned to at %s has been published.\n\nStart: %s\nEnd: %s\n\nPlease acknowledge it in the app.\n",
			msg.Data.FullName, msg.Data.OrgName, msg.Data.StartAt, msg.Data.EndAt,
		)
		return "Shiftline - shift published", body, nil
	case "shift_assigned":
		var msg struct {
			Data domain.ShiftAssignedMailData `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return "", "", err
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nYou have been assigned a shift at %s.\n\nStart: %s\nEnd: %s\n\nPlease acknowledge it in the app.\n",
			msg.Data.FullName, msg.Data.OrgName, msg.Data.StartAt, msg.Data.EndAt,
		)
		return "Shiftline - shift assigned", body, nil
	default:
		return "", "", fmt.Errorf("unsupported mail type: %s", mailType)
	}
}

func handleAuditMessage(ctx context.Context, logger *slog.Logger, repo *repository.Repository, msg amqp.Delivery) {
	entry := domain.AuditEntry{}
	if err := json.Unmarshal(msg.Body, &entry); err != nil {
		logger.Error("failed to decode audit entry", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	if err := repo.InsertAuditLog(ctx, &entry); err != nil {
		logger.Error("failed to persist audit entry", slog.String("action", entry.Action), slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}
