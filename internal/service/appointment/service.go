package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/service/notification"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/metrics"
	"github.com/rehablink/physio-api/pkg/timeutil"
)

const superseded = "superseded by a new booking"

// Service implements the appointment lifecycle: booking, request
// approval/rejection and cancellation. Every transition runs atomically
// against the entity store; notifications go out only after a transition
// commits.
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

// Book confirms an appointment for the given slot. Booking an identical
// slot twice is rejected with ErrDuplicateBooking and leaves the store
// untouched; any other appointment the patient holds at the same slot is
// superseded.
func (s *Service) Book(ctx context.Context, patientID, physioID uuid.UUID, date time.Time, timeOfDay, summary string) (*model.Appointment, error) {
	if _, err := timeutil.ParseClock(timeOfDay); err != nil {
		return nil, errors.ParseFailure("invalid time of day", err)
	}
	date = timeutil.StartOfDay(date)

	var (
		booked  *model.Appointment
		patient *model.Patient
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		patient, err = tx.GetPatient(patientID)
		if err != nil {
			return err
		}
		if _, err := tx.GetPhysiotherapist(physioID); err != nil {
			return err
		}
		booked, err = book(tx, patient, physioID, date, timeOfDay, summary)
		return err
	})
	if err != nil {
		if errors.Is(err, errors.ErrDuplicateBooking) && s.mtx != nil {
			s.mtx.BookingsRejected.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.BookingsTotal.Inc()
	}
	s.notifSvc.EmailBookingConfirmation(ctx, patient.Email, patient.Name, booked)

	s.log.Info("appointment booked",
		"appointment_id", booked.ID.String(),
		"patient_id", patientID.String(),
		"physiotherapist_id", physioID.String())
	return booked, nil
}

// book applies the booking transition inside an open transaction. The
// duplicate guard fires before any mutation, so a rejected booking is a
// strict no-op.
func book(tx *store.Tx, patient *model.Patient, physioID uuid.UUID, date time.Time, timeOfDay, summary string) (*model.Appointment, error) {
	var dup bool
	tx.Appointments(func(a *model.Appointment) bool {
		if a.PatientID == patient.ID &&
			a.PhysiotherapistID == physioID &&
			a.Status != model.AppointmentStatusCancelled &&
			a.Status != model.AppointmentStatusRequested &&
			timeutil.SameDay(a.Date, date) &&
			a.TimeOfDay == timeOfDay {
			dup = true
			return false
		}
		return true
	})
	if dup {
		return nil, errors.DuplicateBooking("appointment already booked for this slot")
	}

	// Supersede anything else the patient holds at this slot: request
	// placeholders are ephemeral intents and are removed outright, while
	// confirmed appointments are soft-cancelled so history keeps them.
	var toRemove, toCancel []uuid.UUID
	tx.Appointments(func(a *model.Appointment) bool {
		if a.PatientID != patient.ID || a.Status == model.AppointmentStatusCancelled {
			return true
		}
		if !timeutil.SameDay(a.Date, date) || a.TimeOfDay != timeOfDay {
			return true
		}
		if a.Status == model.AppointmentStatusRequested {
			toRemove = append(toRemove, a.ID)
		} else {
			toCancel = append(toCancel, a.ID)
		}
		return true
	})
	for _, id := range toRemove {
		tx.DeleteAppointment(id)
	}
	for _, id := range toCancel {
		old, err := tx.GetAppointment(id)
		if err != nil {
			continue
		}
		reason := superseded
		old.Status = model.AppointmentStatusCancelled
		old.CancelReason = &reason
		tx.PutAppointment(old)
	}

	// A pending request for this slot is consumed by the booking.
	resolvePendingRequest(tx, patient.ID, date, timeOfDay)

	apt := &model.Appointment{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         patient.ID,
		PhysiotherapistID: physioID,
		Date:              date,
		TimeOfDay:         timeOfDay,
		Summary:           summary,
		Status:            model.AppointmentStatusConfirmed,
	}
	tx.PutAppointment(apt)
	return apt, nil
}

func resolvePendingRequest(tx *store.Tx, patientID uuid.UUID, date time.Time, timeOfDay string) {
	dateStr := timeutil.FormatDate(date)
	var pending []*model.AppointmentRequest
	tx.AppointmentRequests(func(r *model.AppointmentRequest) bool {
		if r.PatientID == patientID &&
			r.Status == model.RequestStatusPending &&
			r.Date == dateStr &&
			r.TimeOfDay == timeOfDay {
			pending = append(pending, r)
		}
		return true
	})
	for _, r := range pending {
		r.Status = model.RequestStatusApproved
		tx.PutAppointmentRequest(r)
	}
}

// Request records a patient's intent to book. It creates both the pending
// AppointmentRequest and a placeholder appointment that shows up in the
// patient's history immediately.
func (s *Service) Request(ctx context.Context, patientID uuid.UUID, dateStr, timeOfDay string, injury model.Injury, notes string) (*model.AppointmentRequest, error) {
	date, err := timeutil.ParseDisplayDate(dateStr)
	if err != nil {
		return nil, errors.ParseFailure("invalid request date", err)
	}
	if _, err := timeutil.ParseClock(timeOfDay); err != nil {
		return nil, errors.ParseFailure("invalid time of day", err)
	}

	var req *model.AppointmentRequest
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		patient, err := tx.GetPatient(patientID)
		if err != nil {
			return err
		}

		physioID := uuid.Nil
		if patient.PhysiotherapistID != nil {
			physioID = *patient.PhysiotherapistID
		}

		placeholder := &model.Appointment{
			Base:              model.Base{ID: uuid.New()},
			PatientID:         patientID,
			PhysiotherapistID: physioID,
			Date:              date,
			TimeOfDay:         timeOfDay,
			Summary:           notes,
			Status:            model.AppointmentStatusRequested,
		}
		tx.PutAppointment(placeholder)

		req = &model.AppointmentRequest{
			Base:          model.Base{ID: uuid.New()},
			AppointmentID: placeholder.ID,
			PatientID:     patientID,
			PatientName:   patient.Name,
			Date:          dateStr,
			TimeOfDay:     timeOfDay,
			Status:        model.RequestStatusPending,
			Injury:        injury,
			Notes:         notes,
		}
		tx.PutAppointmentRequest(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.RequestsTotal.Inc()
	}
	s.log.Info("appointment requested",
		"request_id", req.ID.String(),
		"patient_id", patientID.String(),
		"date", dateStr, "time", timeOfDay)
	return req, nil
}

// Approve books the requested slot for the given physiotherapist. The
// request's display date is parsed here; a malformed date fails the
// approval without mutating anything.
func (s *Service) Approve(ctx context.Context, requestID, physioID uuid.UUID) (*model.Appointment, error) {
	var (
		booked  *model.Appointment
		patient *model.Patient
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		req, err := tx.GetAppointmentRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestStatusPending {
			return errors.Conflict(fmt.Sprintf("request already %s", req.Status))
		}

		date, err := timeutil.ParseDisplayDate(req.Date)
		if err != nil {
			return errors.ParseFailure("request has an unparseable date", err)
		}

		patient, err = tx.GetPatient(req.PatientID)
		if err != nil {
			return err
		}
		physio, err := tx.GetPhysiotherapist(physioID)
		if err != nil {
			return err
		}

		booked, err = book(tx, patient, physioID, date, req.TimeOfDay, req.Notes)
		if err != nil {
			return err
		}

		// book marked the request approved through the slot match; make
		// sure the one being acted on is resolved even if its display
		// strings drifted.
		req, err = tx.GetAppointmentRequest(requestID)
		if err == nil && req.Status == model.RequestStatusPending {
			req.Status = model.RequestStatusApproved
			tx.PutAppointmentRequest(req)
		}

		if !physio.HasPatient(patient.ID) {
			physio.PatientIDs = append(physio.PatientIDs, patient.ID)
			tx.PutPhysiotherapist(physio)
		}
		if patient.PhysiotherapistID == nil || *patient.PhysiotherapistID != physioID {
			pid := physioID
			patient.PhysiotherapistID = &pid
			tx.PutPatient(patient)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mtx != nil {
		s.mtx.RequestsResolved.WithLabelValues("approved").Inc()
	}
	s.notifSvc.EmailBookingConfirmation(ctx, patient.Email, patient.Name, booked)

	s.log.Info("appointment request approved",
		"request_id", requestID.String(),
		"appointment_id", booked.ID.String(),
		"physiotherapist_id", physioID.String())
	return booked, nil
}

// Reject resolves a pending request negatively and cancels its placeholder
// appointment.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID) error {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		req, err := tx.GetAppointmentRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestStatusPending {
			return errors.Conflict(fmt.Sprintf("request already %s", req.Status))
		}

		req.Status = model.RequestStatusRejected
		tx.PutAppointmentRequest(req)

		if placeholder, err := tx.GetAppointment(req.AppointmentID); err == nil &&
			placeholder.Status == model.AppointmentStatusRequested {
			placeholder.Status = model.AppointmentStatusCancelled
			tx.PutAppointment(placeholder)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.mtx != nil {
		s.mtx.RequestsResolved.WithLabelValues("rejected").Inc()
	}
	s.log.Info("appointment request rejected", "request_id", requestID.String())
	return nil
}

// Cancel is the canonical cancellation: the appointment keeps its record
// with status cancelled, and every open request referencing it is resolved.
// Hard removal happens only in the retention sweep (Purge).
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, reason string, notify bool) error {
	var (
		apt     *model.Appointment
		patient *model.Patient
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		apt, err = tx.GetAppointment(appointmentID)
		if err != nil {
			return err
		}
		if apt.Status == model.AppointmentStatusCancelled {
			return errors.Conflict("appointment is already cancelled")
		}

		apt.Status = model.AppointmentStatusCancelled
		if reason != "" {
			apt.CancelReason = &reason
		}
		tx.PutAppointment(apt)

		var openReschedules []*model.RescheduleRequest
		tx.RescheduleRequests(func(r *model.RescheduleRequest) bool {
			if r.AppointmentID == appointmentID && r.Status == model.RescheduleStatusPending {
				openReschedules = append(openReschedules, r)
			}
			return true
		})
		for _, r := range openReschedules {
			r.Status = model.RescheduleStatusRejected
			tx.PutRescheduleRequest(r)
		}

		var openRequests []*model.AppointmentRequest
		tx.AppointmentRequests(func(r *model.AppointmentRequest) bool {
			if r.AppointmentID == appointmentID && r.Status == model.RequestStatusPending {
				openRequests = append(openRequests, r)
			}
			return true
		})
		for _, r := range openRequests {
			r.Status = model.RequestStatusRejected
			tx.PutAppointmentRequest(r)
		}

		patient, err = tx.GetPatient(apt.PatientID)
		return err
	})
	if err != nil {
		return err
	}

	if s.mtx != nil {
		s.mtx.CancellationsTotal.Inc()
	}
	if notify {
		text := fmt.Sprintf("Appointment on %s at %s was cancelled.",
			timeutil.FormatDate(apt.Date), apt.TimeOfDay)
		if reason != "" {
			text += " Reason: " + reason
		}
		s.notifSvc.SendMessage(ctx,
			apt.PatientID.String(),
			apt.PhysiotherapistID.String(),
			patient.Name,
			text)
		s.notifSvc.EmailCancellationNotice(ctx, patient.Email, patient.Name, reason, apt)
	}

	s.log.Info("appointment cancelled",
		"appointment_id", appointmentID.String(),
		"reason", reason)
	return nil
}

// Get returns a single appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var apt *model.Appointment
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		apt, err = tx.GetAppointment(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return apt, nil
}

// List returns appointments matching the filters in insertion order.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	err := s.store.View(func(tx *store.Tx) error {
		tx.Appointments(func(a *model.Appointment) bool {
			if filters != nil {
				if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
					return true
				}
				if filters.PhysiotherapistID != uuid.Nil && a.PhysiotherapistID != filters.PhysiotherapistID {
					return true
				}
				if filters.Status != "" && a.Status != filters.Status {
					return true
				}
				if !filters.From.IsZero() && a.Date.Before(filters.From) {
					return true
				}
				if !filters.To.IsZero() && a.Date.After(filters.To) {
					return true
				}
			}
			out = append(out, a)
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Purge hard-deletes cancelled appointments last touched before the cutoff,
// along with the resolved requests that referenced them. Used only by the
// retention worker.
func (s *Service) Purge(ctx context.Context, before time.Time) (int, error) {
	purged := 0
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var stale []uuid.UUID
		tx.Appointments(func(a *model.Appointment) bool {
			if a.Status == model.AppointmentStatusCancelled && a.UpdatedAt.Before(before) {
				stale = append(stale, a.ID)
			}
			return true
		})
		if len(stale) == 0 {
			return nil
		}

		staleSet := make(map[uuid.UUID]bool, len(stale))
		for _, id := range stale {
			staleSet[id] = true
			tx.DeleteAppointment(id)
		}
		purged = len(stale)

		var reqs []uuid.UUID
		tx.AppointmentRequests(func(r *model.AppointmentRequest) bool {
			if staleSet[r.AppointmentID] && r.Status != model.RequestStatusPending {
				reqs = append(reqs, r.ID)
			}
			return true
		})
		for _, id := range reqs {
			tx.DeleteAppointmentRequest(id)
		}

		var resch []uuid.UUID
		tx.RescheduleRequests(func(r *model.RescheduleRequest) bool {
			if staleSet[r.AppointmentID] && r.Status != model.RescheduleStatusPending {
				resch = append(resch, r.ID)
			}
			return true
		})
		for _, id := range resch {
			tx.DeleteRescheduleRequest(id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		if s.mtx != nil {
			s.mtx.AppointmentsPurged.Add(float64(purged))
		}
		s.log.Info("retention sweep purged cancelled appointments", "count", purged)
	}
	return purged, nil
}
