package reschedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/service/notification"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/metrics"
	"github.com/rehablink/physio-api/pkg/timeutil"
)

// Service implements the reschedule negotiation. A proposal moves the
// appointment out of confirmed immediately; the patient's response either
// settles the new slot or cancels the appointment. Requests are always
// resolved by appointment ID.
type Service struct {
	store    *store.Store
	notifSvc notification.Service
	log      *logger.Logger
	mtx      *metrics.Metrics
}

func NewService(st *store.Store, notifSvc notification.Service, log *logger.Logger, mtx *metrics.Metrics) *Service {
	return &Service{
		store:    st,
		notifSvc: notifSvc,
		log:      log,
		mtx:      mtx,
	}
}

// Propose opens a reschedule negotiation for a confirmed appointment. Only
// one proposal can be open per appointment: proposing moves the appointment
// to reschedule_proposed, and proposing against anything but a confirmed
// appointment is a conflict.
func (s *Service) Propose(ctx context.Context, appointmentID uuid.UUID, suggestedDate, suggestedTime *string) (*model.RescheduleRequest, error) {
	if suggestedDate != nil {
		if _, err := timeutil.ParseDisplayDate(*suggestedDate); err != nil {
			return nil, errors.ParseFailure("invalid suggested date", err)
		}
	}
	if suggestedTime != nil {
		if _, err := timeutil.ParseClock(*suggestedTime); err != nil {
			return nil, errors.ParseFailure("invalid suggested time", err)
		}
	}

	var req *model.RescheduleRequest
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		apt, err := tx.GetAppointment(appointmentID)
		if err != nil {
			return err
		}
		if apt.Status != model.AppointmentStatusConfirmed {
			return errors.Conflict(fmt.Sprintf("cannot reschedule a %s appointment", apt.Status))
		}

		apt.Status = model.AppointmentStatusRescheduleProposed
		tx.PutAppointment(apt)

		req = &model.RescheduleRequest{
			Base:          model.Base{ID: uuid.New()},
			AppointmentID: apt.ID,
			PatientID:     apt.PatientID,
			OriginalDate:  apt.Date,
			OriginalTime:  apt.TimeOfDay,
			SuggestedDate: suggestedDate,
			SuggestedTime: suggestedTime,
			Status:        model.RescheduleStatusPending,
		}
		tx.PutRescheduleRequest(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.ReschedulesProposed.Inc()
	}
	s.log.Info("reschedule proposed",
		"request_id", req.ID.String(),
		"appointment_id", appointmentID.String())
	return req, nil
}

// Respond settles a pending proposal. Accepting moves the appointment to
// the agreed slot and confirms it; rejecting cancels the appointment.
func (s *Service) Respond(ctx context.Context, requestID uuid.UUID, dateStr, timeOfDay string, accept bool) (*model.Appointment, error) {
	if accept {
		return s.accept(ctx, requestID, dateStr, timeOfDay)
	}
	return s.reject(ctx, requestID)
}

func (s *Service) accept(ctx context.Context, requestID uuid.UUID, dateStr, timeOfDay string) (*model.Appointment, error) {
	date, err := timeutil.ParseDisplayDate(dateStr)
	if err != nil {
		return nil, errors.ParseFailure("invalid agreed date", err)
	}
	if _, err := timeutil.ParseClock(timeOfDay); err != nil {
		return nil, errors.ParseFailure("invalid agreed time", err)
	}

	var apt *model.Appointment
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		req, err := tx.GetRescheduleRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != model.RescheduleStatusPending {
			return errors.Conflict(fmt.Sprintf("reschedule request already %s", req.Status))
		}

		apt, err = tx.GetAppointment(req.AppointmentID)
		if err != nil {
			return err
		}

		apt.Date = date
		apt.TimeOfDay = timeOfDay
		apt.Status = model.AppointmentStatusConfirmed
		tx.PutAppointment(apt)

		req.Status = model.RescheduleStatusAccepted
		req.SuggestedDate = &dateStr
		req.SuggestedTime = &timeOfDay
		tx.PutRescheduleRequest(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.ReschedulesResolved.WithLabelValues("accepted").Inc()
	}
	s.log.Info("reschedule accepted",
		"request_id", requestID.String(),
		"appointment_id", apt.ID.String(),
		"date", dateStr, "time", timeOfDay)
	return apt, nil
}

func (s *Service) reject(ctx context.Context, requestID uuid.UUID) (*model.Appointment, error) {
	var (
		apt     *model.Appointment
		patient *model.Patient
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		req, err := tx.GetRescheduleRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != model.RescheduleStatusPending {
			return errors.Conflict(fmt.Sprintf("reschedule request already %s", req.Status))
		}

		req.Status = model.RescheduleStatusRejected
		tx.PutRescheduleRequest(req)

		apt, err = tx.GetAppointment(req.AppointmentID)
		if err != nil {
			return err
		}
		reason := "reschedule rejected"
		apt.Status = model.AppointmentStatusCancelled
		apt.CancelReason = &reason
		tx.PutAppointment(apt)

		patient, err = tx.GetPatient(apt.PatientID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.ReschedulesResolved.WithLabelValues("rejected").Inc()
		s.mtx.CancellationsTotal.Inc()
	}
	text := fmt.Sprintf("Reschedule for %s at %s was declined; the appointment is cancelled.",
		timeutil.FormatDate(apt.Date), apt.TimeOfDay)
	s.notifSvc.SendMessage(ctx,
		apt.PatientID.String(),
		apt.PhysiotherapistID.String(),
		patient.Name,
		text)
	s.notifSvc.EmailCancellationNotice(ctx, patient.Email, patient.Name, "reschedule rejected", apt)

	s.log.Info("reschedule rejected, appointment cancelled",
		"request_id", requestID.String(),
		"appointment_id", apt.ID.String())
	return apt, nil
}

// PendingForPatient lists a patient's open reschedule requests.
func (s *Service) PendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error) {
	var out []*model.RescheduleRequest
	err := s.store.View(func(tx *store.Tx) error {
		tx.RescheduleRequests(func(r *model.RescheduleRequest) bool {
			if r.PatientID == patientID && r.Status == model.RescheduleStatusPending {
				out = append(out, r)
			}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
