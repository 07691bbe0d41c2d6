package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tribewatch.services.notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type EmailNotifier struct {
	config  SmtpConfig
	subject string
}

func NewEmailNotifier(config SmtpConfig, subject string) EmailNotifier {
	if subject == "" {
		subject = "Village ennoblements"
	}
	return EmailNotifier{
		config:  config,
		subject: subject,
	}
}

func (n EmailNotifier) IsReady() bool {
	return n.config.Server != "" && n.config.EmailAddress != ""
}

func (n EmailNotifier) send(recipient, message string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Tribewatch <%s>", n.config.EmailAddress)
	mail.To = []string{recipient}
	mail.Subject = n.subject
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

// delivers `message` to every recipient. individual failures are
// logged and tolerated, it only errors when no recipient could be
// reached at all.
func (n EmailNotifier) NotifyMany(ctx context.Context, recipients []string, message string) error {
	ctx, span := tracer.Start(ctx, "NotifyMany")
	defer span.End()

	var errlist []error
	for _, recipient := range recipients {
		err := n.send(recipient, message)
		if err != nil {
			slog.WarnContext(ctx, "failed to deliver email", "recipient", recipient, "err", err)
			span.RecordError(err)
			errlist = append(errlist, err)
		}
	}

	if len(recipients) > 0 && len(errlist) == len(recipients) {
		err := errors.Join(errlist...)
		span.SetStatus(codes.Error, "all deliveries failed")
		return err
	}
	return nil
}
