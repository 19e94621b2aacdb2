package notification

import (
	"context"
	"fmt"

	"github.com/rehablink/physio-api/internal/email"
	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/messaging"
	"github.com/rehablink/physio-api/pkg/metrics"
)

// ChannelDirectMessages is the broker channel carrying party-to-party
// messages such as cancellation notices.
const ChannelDirectMessages = "care.messages"

// Service delivers counterparty notifications. Delivery is fire and forget:
// failures are logged and counted but never fail the triggering transition.
type Service interface {
	SendMessage(ctx context.Context, senderID, receiverID, senderName, text string)
	EmailBookingConfirmation(ctx context.Context, to, name string, apt *model.Appointment)
	EmailCancellationNotice(ctx context.Context, to, name, reason string, apt *model.Appointment)
}

type service struct {
	broker   messaging.Broker
	emailSvc email.Service
	log      *logger.Logger
	mtx      *metrics.Metrics
}

func NewService(broker messaging.Broker, emailSvc email.Service, log *logger.Logger, mtx *metrics.Metrics) Service {
	return &service{
		broker:   broker,
		emailSvc: emailSvc,
		log:      log,
		mtx:      mtx,
	}
}

func (s *service) SendMessage(ctx context.Context, senderID, receiverID, senderName, text string) {
	msg := messaging.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		SenderName: senderName,
		Text:       text,
	}

	status := "success"
	if err := s.broker.Publish(ctx, ChannelDirectMessages, msg); err != nil {
		status = "error"
		s.log.Error(err, "failed to publish direct message",
			"sender_id", senderID, "receiver_id", receiverID)
	}
	if s.mtx != nil {
		s.mtx.MessagesPublished.WithLabelValues(ChannelDirectMessages, status).Inc()
	}
}

func (s *service) EmailBookingConfirmation(ctx context.Context, to, name string, apt *model.Appointment) {
	s.sendEmail(func() error {
		return s.emailSvc.SendBookingConfirmation(ctx, to, name, apt)
	})
}

func (s *service) EmailCancellationNotice(ctx context.Context, to, name, reason string, apt *model.Appointment) {
	s.sendEmail(func() error {
		return s.emailSvc.SendCancellationNotice(ctx, to, name, reason, apt)
	})
}

func (s *service) sendEmail(send func() error) {
	status := "success"
	if err := send(); err != nil {
		status = "error"
		s.log.Error(fmt.Errorf("email delivery: %w", err), "failed to send notification email")
	}
	if s.mtx != nil {
		s.mtx.EmailsSent.WithLabelValues(status).Inc()
	}
}
