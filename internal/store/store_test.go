package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/repository"
	"github.com/rehablink/physio-api/internal/repository/memory"
	"github.com/rehablink/physio-api/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, repository.BlobStore) {
	t.Helper()
	blobs := memory.NewBlobStore()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	st := New(blobs, log, nil)
	require.NoError(t, st.Load(context.Background()))
	return st, blobs
}

func testAppointment(patientID, physioID uuid.UUID) *model.Appointment {
	return &model.Appointment{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         patientID,
		PhysiotherapistID: physioID,
		Date:              time.Date(2025, time.April, 10, 0, 0, 0, 0, time.Local),
		TimeOfDay:         "8:00 AM",
		Status:            model.AppointmentStatusConfirmed,
	}
}

func TestUpdateCommitsAndPersists(t *testing.T) {
	st, blobs := newTestStore(t)
	ctx := context.Background()

	apt := testAppointment(uuid.New(), uuid.New())
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(apt)
		return nil
	}))

	var got *model.Appointment
	require.NoError(t, st.View(func(tx *Tx) error {
		var err error
		got, err = tx.GetAppointment(apt.ID)
		return err
	}))
	assert.Equal(t, apt.ID, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	// A fresh store over the same blobs sees the committed state.
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	reloaded := New(blobs, log, nil)
	require.NoError(t, reloaded.Load(ctx))
	require.NoError(t, reloaded.View(func(tx *Tx) error {
		_, err := tx.GetAppointment(apt.ID)
		return err
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	apt := testAppointment(uuid.New(), uuid.New())
	boom := errors.New("boom")
	err := st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(apt)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = st.View(func(tx *Tx) error {
		_, err := tx.GetAppointment(apt.ID)
		return err
	})
	assert.Error(t, err)
}

func TestViewRejectsWrites(t *testing.T) {
	st, _ := newTestStore(t)

	assert.Panics(t, func() {
		_ = st.View(func(tx *Tx) error {
			tx.PutAppointment(testAppointment(uuid.New(), uuid.New()))
			return nil
		})
	})
}

func TestTxGettersReturnCopies(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	apt := testAppointment(uuid.New(), uuid.New())
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(apt)
		return nil
	}))

	require.NoError(t, st.View(func(tx *Tx) error {
		got, err := tx.GetAppointment(apt.ID)
		require.NoError(t, err)
		got.Status = model.AppointmentStatusCancelled
		return nil
	}))

	require.NoError(t, st.View(func(tx *Tx) error {
		got, err := tx.GetAppointment(apt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusConfirmed, got.Status)
		return nil
	}))
}

func TestAppointmentsVisitInsertionOrder(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		apt := testAppointment(uuid.New(), uuid.New())
		want = append(want, apt.ID)
		require.NoError(t, st.Update(ctx, func(tx *Tx) error {
			tx.PutAppointment(apt)
			return nil
		}))
	}

	var got []uuid.UUID
	require.NoError(t, st.View(func(tx *Tx) error {
		tx.Appointments(func(a *model.Appointment) bool {
			got = append(got, a.ID)
			return true
		})
		return nil
	}))
	assert.Equal(t, want, got)
}

func TestDeleteAppointmentRemovesFromStoreAndBlob(t *testing.T) {
	st, blobs := newTestStore(t)
	ctx := context.Background()

	keep := testAppointment(uuid.New(), uuid.New())
	drop := testAppointment(uuid.New(), uuid.New())
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(keep)
		tx.PutAppointment(drop)
		return nil
	}))
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.DeleteAppointment(drop.ID)
		return nil
	}))

	err := st.View(func(tx *Tx) error {
		_, err := tx.GetAppointment(drop.ID)
		return err
	})
	assert.Error(t, err)

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	reloaded := New(blobs, log, nil)
	require.NoError(t, reloaded.Load(ctx))
	require.NoError(t, reloaded.View(func(tx *Tx) error {
		_, err := tx.GetAppointment(keep.ID)
		require.NoError(t, err)
		_, err = tx.GetAppointment(drop.ID)
		assert.Error(t, err)
		return nil
	}))
}

func TestSubscribeDeliversCommittedEvents(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	events, cancel := st.Subscribe()
	defer cancel()

	apt := testAppointment(uuid.New(), uuid.New())
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(apt)
		return nil
	}))

	select {
	case ev := <-events:
		assert.Equal(t, CollectionAppointments, ev.Collection)
		assert.Equal(t, apt.ID, ev.EntityID)
		assert.Equal(t, OpCreated, ev.Op)
	case <-time.After(time.Second):
		t.Fatal("no change event delivered")
	}
}

func TestSubscribeNoEventsOnRollback(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	events, cancel := st.Subscribe()
	defer cancel()

	_ = st.Update(ctx, func(tx *Tx) error {
		tx.PutAppointment(testAppointment(uuid.New(), uuid.New()))
		return errors.New("boom")
	})

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
