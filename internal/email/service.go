package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/pkg/timeutil"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Service interface {
	SendBookingConfirmation(ctx context.Context, to, name string, apt *model.Appointment) error
	SendCancellationNotice(ctx context.Context, to, name, reason string, apt *model.Appointment) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *service) SendBookingConfirmation(ctx context.Context, to, name string, apt *model.Appointment) error {
	subject := "Appointment confirmed"
	content := fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s at %s has been confirmed.\n\nSee you then!",
		name, timeutil.FormatDate(apt.Date), apt.TimeOfDay,
	)
	return s.SendCustom(ctx, to, subject, content)
}

func (s *service) SendCancellationNotice(ctx context.Context, to, name, reason string, apt *model.Appointment) error {
	subject := "Appointment cancelled"
	content := fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s at %s has been cancelled.",
		name, timeutil.FormatDate(apt.Date), apt.TimeOfDay,
	)
	if reason != "" {
		content += fmt.Sprintf("\n\nReason: %s", reason)
	}
	return s.SendCustom(ctx, to, subject, content)
}

func (s *service) SendCustom(_ context.Context, to, subject, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
