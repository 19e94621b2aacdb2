package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/timeutil"
)

const (
	cacheTTL     = 15 * time.Second
	cacheCleanup = time.Minute
)

// Classify maps an appointment's stored status to its display badge.
// Requested and reschedule_proposed both surface as pending; the function is
// total over the status enum.
func Classify(apt *model.Appointment) model.Badge {
	switch apt.Status {
	case model.AppointmentStatusRequested, model.AppointmentStatusRescheduleProposed:
		return model.BadgePending
	case model.AppointmentStatusCancelled:
		return model.BadgeCancelled
	default:
		return model.BadgeConfirmed
	}
}

// Service provides the read-only projections: rosters, day views and the
// patient's home-screen pick. Roster views are cached briefly and dropped
// whenever the store reports a change.
type Service struct {
	store *store.Store
	cache *gocache.Cache
	now   func() time.Time

	cancelSub func()
}

func NewService(st *store.Store) *Service {
	s := &Service{
		store: st,
		cache: gocache.New(cacheTTL, cacheCleanup),
		now:   time.Now,
	}

	events, cancel := st.Subscribe()
	s.cancelSub = cancel
	go func() {
		for range events {
			s.cache.Flush()
		}
	}()
	return s
}

// Close drops the store subscription.
func (s *Service) Close() {
	if s.cancelSub != nil {
		s.cancelSub()
	}
}

// Today lists a physiotherapist's confirmed appointments falling on the
// current local day, ascending by date.
func (s *Service) Today(ctx context.Context, physioID uuid.UUID) ([]*model.Appointment, error) {
	key := "today:" + physioID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Appointment), nil
	}

	now := s.now()
	out, err := s.roster(physioID, func(a *model.Appointment) bool {
		return timeutil.SameDay(a.Date, now)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, out, gocache.DefaultExpiration)
	return out, nil
}

// Upcoming lists a physiotherapist's confirmed appointments from tomorrow
// onward, ascending by date.
func (s *Service) Upcoming(ctx context.Context, physioID uuid.UUID) ([]*model.Appointment, error) {
	key := "upcoming:" + physioID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Appointment), nil
	}

	now := s.now()
	out, err := s.roster(physioID, func(a *model.Appointment) bool {
		return timeutil.IsTomorrowOrLater(a.Date, now)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, out, gocache.DefaultExpiration)
	return out, nil
}

// roster scans confirmed appointments for one physiotherapist, deduplicated
// by (patient, date, time) and sorted ascending by date.
func (s *Service) roster(physioID uuid.UUID, keep func(*model.Appointment) bool) ([]*model.Appointment, error) {
	type slot struct {
		patient uuid.UUID
		day     string
		clock   string
	}
	seen := make(map[slot]bool)
	var out []*model.Appointment

	err := s.store.View(func(tx *store.Tx) error {
		tx.Appointments(func(a *model.Appointment) bool {
			if a.PhysiotherapistID != physioID || a.Status != model.AppointmentStatusConfirmed {
				return true
			}
			if !keep(a) {
				return true
			}
			k := slot{patient: a.PatientID, day: timeutil.FormatDate(a.Date), clock: a.TimeOfDay}
			if seen[k] {
				return true
			}
			seen[k] = true
			out = append(out, a)
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// History lists every appointment a patient has, all statuses, in insertion
// order.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	err := s.store.View(func(tx *store.Tx) error {
		tx.Appointments(func(a *model.Appointment) bool {
			if a.PatientID == patientID {
				out = append(out, a)
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

// Roster lists every appointment assigned to a physiotherapist, all
// statuses, in insertion order.
func (s *Service) Roster(ctx context.Context, physioID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	err := s.store.View(func(tx *store.Tx) error {
		tx.Appointments(func(a *model.Appointment) bool {
			if a.PhysiotherapistID == physioID {
				out = append(out, a)
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

// MostRelevant picks the appointment a patient's home view should lead
// with: the most recently accepted reschedule first, then the earliest
// pending one, then the earliest upcoming confirmed one. Returns nil when
// nothing qualifies.
func (s *Service) MostRelevant(ctx context.Context, patientID uuid.UUID) (*model.Appointment, error) {
	now := s.now()

	var (
		accepted   *model.Appointment
		acceptedAt time.Time
		pending    *model.Appointment
		upcoming   *model.Appointment
	)
	err := s.store.View(func(tx *store.Tx) error {
		acceptedFor := make(map[uuid.UUID]time.Time)
		tx.RescheduleRequests(func(r *model.RescheduleRequest) bool {
			if r.PatientID == patientID && r.Status == model.RescheduleStatusAccepted {
				if at, ok := acceptedFor[r.AppointmentID]; !ok || r.UpdatedAt.After(at) {
					acceptedFor[r.AppointmentID] = r.UpdatedAt
				}
			}
			return true
		})

		tx.Appointments(func(a *model.Appointment) bool {
			if a.PatientID != patientID {
				return true
			}
			switch Classify(a) {
			case model.BadgePending:
				if pending == nil || a.Date.Before(pending.Date) {
					pending = a
				}
			case model.BadgeConfirmed:
				if at, ok := acceptedFor[a.ID]; ok {
					if accepted == nil || at.After(acceptedAt) {
						accepted = a
						acceptedAt = at
					}
				}
				if !a.Date.Before(timeutil.StartOfDay(now)) {
					if upcoming == nil || a.Date.Before(upcoming.Date) {
						upcoming = a
					}
				}
			}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if accepted != nil {
		return accepted, nil
	}
	if pending != nil {
		return pending, nil
	}
	return upcoming, nil
}
