package notification

import (
	"context"

	"github.com/rehablink/physio-api/internal/model"
)

type noop struct{}

// NewNoop returns a notification service that delivers nothing. Maintenance
// commands use it so purges never message anyone.
func NewNoop() Service {
	return noop{}
}

func (noop) SendMessage(context.Context, string, string, string, string) {}

func (noop) EmailBookingConfirmation(context.Context, string, string, *model.Appointment) {}

func (noop) EmailCancellationNotice(context.Context, string, string, string, *model.Appointment) {}
