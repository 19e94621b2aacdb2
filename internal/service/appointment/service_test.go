package appointment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/repository/memory"
	"github.com/rehablink/physio-api/internal/service/notification"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/timeutil"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	st := store.New(memory.NewBlobStore(), log, nil)
	require.NoError(t, st.Load(context.Background()))
	return NewService(st, notification.NewNoop(), log, nil), st
}

func seedParties(t *testing.T, st *store.Store) (*model.Patient, *model.Physiotherapist) {
	t.Helper()
	patient := &model.Patient{
		Base:  model.Base{ID: uuid.New()},
		Name:  "Ana Silva",
		Email: "ana@example.com",
	}
	physio := &model.Physiotherapist{
		Base:  model.Base{ID: uuid.New()},
		Name:  "Jo Brand",
		Email: "jo@example.com",
	}
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		tx.PutPatient(patient)
		tx.PutPhysiotherapist(physio)
		return nil
	}))
	return patient, physio
}

func countAppointments(t *testing.T, st *store.Store) int {
	t.Helper()
	n := 0
	require.NoError(t, st.View(func(tx *store.Tx) error {
		tx.Appointments(func(*model.Appointment) bool {
			n++
			return true
		})
		return nil
	}))
	return n
}

func TestBook(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	date := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local)
	apt, err := svc.Book(ctx, patient.ID, physio.ID, date, "8:00 AM", "knee session")
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)
	assert.Equal(t, patient.ID, apt.PatientID)
	assert.Equal(t, physio.ID, apt.PhysiotherapistID)
	assert.Equal(t, "8:00 AM", apt.TimeOfDay)
	assert.True(t, timeutil.SameDay(apt.Date, date))
}

func TestBookDuplicateSlotIsNoOp(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	date := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local)
	_, err := svc.Book(ctx, patient.ID, physio.ID, date, "8:00 AM", "")
	require.NoError(t, err)

	before := countAppointments(t, st)
	_, err = svc.Book(ctx, patient.ID, physio.ID, date, "8:00 AM", "again")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateBooking))
	assert.Equal(t, before, countAppointments(t, st))
}

func TestBookUnknownPatient(t *testing.T) {
	svc, st := newTestService(t)
	_, physio := seedParties(t, st)

	_, err := svc.Book(context.Background(), uuid.New(), physio.ID,
		time.Now(), "8:00 AM", "")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBookInvalidTimeOfDay(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)

	_, err := svc.Book(context.Background(), patient.ID, physio.ID,
		time.Now(), "14:00", "")
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestBookSupersedesConfirmedAtSameSlot(t *testing.T) {
	svc, st := newTestService(t)
	patient, physioA := seedParties(t, st)
	physioB := &model.Physiotherapist{
		Base:  model.Base{ID: uuid.New()},
		Name:  "Sam Ortiz",
		Email: "sam@example.com",
	}
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		tx.PutPhysiotherapist(physioB)
		return nil
	}))
	ctx := context.Background()

	date := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local)
	first, err := svc.Book(ctx, patient.ID, physioA.ID, date, "8:00 AM", "")
	require.NoError(t, err)

	second, err := svc.Book(ctx, patient.ID, physioB.ID, date, "8:00 AM", "")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, second.Status)

	old, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, old.Status)
	require.NotNil(t, old.CancelReason)
	assert.Equal(t, "superseded by a new booking", *old.CancelReason)
}

func TestRequestCreatesPendingAndPlaceholder(t *testing.T) {
	svc, st := newTestService(t)
	patient, _ := seedParties(t, st)
	ctx := context.Background()

	req, err := svc.Request(ctx, patient.ID, "10 Apr, 2025", "8:00 AM",
		model.Injury{Kind: model.InjuryGrade2}, "twisted ankle")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, patient.Name, req.PatientName)

	placeholder, err := svc.Get(ctx, req.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusRequested, placeholder.Status)
	assert.Equal(t, "8:00 AM", placeholder.TimeOfDay)
}

func TestRequestRejectsMalformedDate(t *testing.T) {
	svc, st := newTestService(t)
	patient, _ := seedParties(t, st)

	_, err := svc.Request(context.Background(), patient.ID, "2025-04-10", "8:00 AM",
		model.Injury{}, "")
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestApprove(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	req, err := svc.Request(ctx, patient.ID, "10 Apr, 2025", "8:00 AM",
		model.Injury{Kind: model.InjuryGrade1}, "")
	require.NoError(t, err)

	booked, err := svc.Approve(ctx, req.ID, physio.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, booked.Status)
	assert.Equal(t, physio.ID, booked.PhysiotherapistID)

	// The placeholder is consumed; exactly one appointment remains.
	assert.Equal(t, 1, countAppointments(t, st))

	require.NoError(t, st.View(func(tx *store.Tx) error {
		resolved, err := tx.GetAppointmentRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusApproved, resolved.Status)

		p, err := tx.GetPatient(patient.ID)
		require.NoError(t, err)
		require.NotNil(t, p.PhysiotherapistID)
		assert.Equal(t, physio.ID, *p.PhysiotherapistID)

		ph, err := tx.GetPhysiotherapist(physio.ID)
		require.NoError(t, err)
		assert.True(t, ph.HasPatient(patient.ID))
		return nil
	}))
}

func TestApproveTwiceConflicts(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	req, err := svc.Request(ctx, patient.ID, "10 Apr, 2025", "8:00 AM",
		model.Injury{}, "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, physio.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, physio.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestReject(t *testing.T) {
	svc, st := newTestService(t)
	patient, _ := seedParties(t, st)
	ctx := context.Background()

	req, err := svc.Request(ctx, patient.ID, "10 Apr, 2025", "8:00 AM",
		model.Injury{}, "")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, req.ID))

	require.NoError(t, st.View(func(tx *store.Tx) error {
		resolved, err := tx.GetAppointmentRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusRejected, resolved.Status)
		return nil
	}))

	placeholder, err := svc.Get(ctx, req.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, placeholder.Status)
}

func TestCancel(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	apt, err := svc.Book(ctx, patient.ID, physio.ID,
		time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local), "8:00 AM", "")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, apt.ID, "patient unavailable", true))

	got, err := svc.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "patient unavailable", *got.CancelReason)

	err = svc.Cancel(ctx, apt.ID, "again", false)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCancelResolvesOpenReschedules(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	apt, err := svc.Book(ctx, patient.ID, physio.ID,
		time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local), "8:00 AM", "")
	require.NoError(t, err)

	resch := &model.RescheduleRequest{
		Base:          model.Base{ID: uuid.New()},
		AppointmentID: apt.ID,
		PatientID:     patient.ID,
		OriginalDate:  apt.Date,
		OriginalTime:  apt.TimeOfDay,
		Status:        model.RescheduleStatusPending,
	}
	require.NoError(t, st.Update(ctx, func(tx *store.Tx) error {
		tx.PutRescheduleRequest(resch)
		return nil
	}))

	require.NoError(t, svc.Cancel(ctx, apt.ID, "", false))

	require.NoError(t, st.View(func(tx *store.Tx) error {
		got, err := tx.GetRescheduleRequest(resch.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RescheduleStatusRejected, got.Status)
		return nil
	}))
}

func TestPurge(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	cancelled, err := svc.Book(ctx, patient.ID, physio.ID,
		time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local), "8:00 AM", "")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, cancelled.ID, "done", false))

	kept, err := svc.Book(ctx, patient.ID, physio.ID,
		time.Date(2025, time.April, 11, 0, 0, 0, 0, time.Local), "9:00 AM", "")
	require.NoError(t, err)

	purged, err := svc.Purge(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = svc.Get(ctx, cancelled.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = svc.Get(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestPurgeNothingStale(t *testing.T) {
	svc, st := newTestService(t)
	patient, physio := seedParties(t, st)
	ctx := context.Background()

	_, err := svc.Book(ctx, patient.ID, physio.ID,
		time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local), "8:00 AM", "")
	require.NoError(t, err)

	purged, err := svc.Purge(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)
	assert.Equal(t, 1, countAppointments(t, st))
}
