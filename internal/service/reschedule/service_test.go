package reschedule

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
)

type fixture struct {
	svc     *Service
	store   *store.Store
	patient *model.Patient
	apt     *model.Appointment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	st := store.New(memory.NewBlobStore(), log, nil)
	require.NoError(t, st.Load(context.Background()))

	patient := &model.Patient{
		Base:  model.Base{ID: uuid.New()},
		Name:  "Ana Silva",
		Email: "ana@example.com",
	}
	apt := &model.Appointment{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         patient.ID,
		PhysiotherapistID: uuid.New(),
		Date:              time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local),
		TimeOfDay:         "8:00 AM",
		Status:            model.AppointmentStatusConfirmed,
	}
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		tx.PutPatient(patient)
		tx.PutAppointment(apt)
		return nil
	}))

	return &fixture{
		svc:     NewService(st, notification.NewNoop(), log, nil),
		store:   st,
		patient: patient,
		apt:     apt,
	}
}

func TestPropose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	date := "12 Apr, 2025"
	clock := "2:30 PM"
	req, err := f.svc.Propose(ctx, f.apt.ID, &date, &clock)
	require.NoError(t, err)

	assert.Equal(t, model.RescheduleStatusPending, req.Status)
	assert.Equal(t, f.apt.ID, req.AppointmentID)
	assert.Equal(t, f.patient.ID, req.PatientID)
	assert.Equal(t, "8:00 AM", req.OriginalTime)

	require.NoError(t, f.store.View(func(tx *store.Tx) error {
		apt, err := tx.GetAppointment(f.apt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusRescheduleProposed, apt.Status)
		return nil
	}))
}

func TestProposeWithoutSuggestion(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Propose(context.Background(), f.apt.ID, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, req.SuggestedDate)
	assert.Nil(t, req.SuggestedTime)
}

func TestProposeRejectsNonConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	// The appointment is now reschedule_proposed; a second proposal conflicts.
	_, err = f.svc.Propose(ctx, f.apt.ID, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestProposeRejectsMalformedSuggestion(t *testing.T) {
	f := newFixture(t)

	bad := "2025-04-12"
	_, err := f.svc.Propose(context.Background(), f.apt.ID, &bad, nil)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestProposeUnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Propose(context.Background(), uuid.New(), nil, nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRespondAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	apt, err := f.svc.Respond(ctx, req.ID, "15 Apr, 2025", "10:00 AM", true)
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)
	assert.Equal(t, "10:00 AM", apt.TimeOfDay)
	assert.Equal(t, 15, apt.Date.Day())
	assert.Equal(t, time.April, apt.Date.Month())

	require.NoError(t, f.store.View(func(tx *store.Tx) error {
		got, err := tx.GetRescheduleRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RescheduleStatusAccepted, got.Status)
		require.NotNil(t, got.SuggestedDate)
		assert.Equal(t, "15 Apr, 2025", *got.SuggestedDate)
		return nil
	}))
}

func TestRespondAcceptRejectsMalformedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, req.ID, "not a date", "10:00 AM", true)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))

	// The proposal stays open.
	require.NoError(t, f.store.View(func(tx *store.Tx) error {
		got, err := tx.GetRescheduleRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RescheduleStatusPending, got.Status)
		return nil
	}))
}

func TestRespondReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	apt, err := f.svc.Respond(ctx, req.ID, "", "", false)
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusCancelled, apt.Status)
	require.NotNil(t, apt.CancelReason)
	assert.Equal(t, "reschedule rejected", *apt.CancelReason)

	require.NoError(t, f.store.View(func(tx *store.Tx) error {
		got, err := tx.GetRescheduleRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RescheduleStatusRejected, got.Status)
		return nil
	}))
}

func TestRespondTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, req.ID, "15 Apr, 2025", "10:00 AM", true)
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, req.ID, "16 Apr, 2025", "11:00 AM", true)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestPendingForPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Propose(ctx, f.apt.ID, nil, nil)
	require.NoError(t, err)

	pending, err := f.svc.PendingForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)

	_, err = f.svc.Respond(ctx, req.ID, "15 Apr, 2025", "10:00 AM", true)
	require.NoError(t, err)

	pending, err = f.svc.PendingForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
