package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/pkg/errors"
)

// Tx is a unit of work against the store. Writable transactions stage their
// puts and deletes and commit into the live maps only when the enclosing
// Update callback returns nil. All getters return copies; mutate the copy
// and Put it back.
type Tx struct {
	s        *Store
	writable bool

	putPatients map[uuid.UUID]*model.Patient
	putPhysios  map[uuid.UUID]*model.Physiotherapist
	putAppts    map[uuid.UUID]*model.Appointment
	putApptReqs map[uuid.UUID]*model.AppointmentRequest
	putResch    map[uuid.UUID]*model.RescheduleRequest
	delAppts    map[uuid.UUID]bool
	delApptReqs map[uuid.UUID]bool
	delResch    map[uuid.UUID]bool
	newAppts    []uuid.UUID
	newApptReqs []uuid.UUID
	newResch    []uuid.UUID
	dirtySet    map[string]bool
	events      []ChangeEvent
}

func newTx(s *Store, writable bool) *Tx {
	return &Tx{
		s:           s,
		writable:    writable,
		putPatients: make(map[uuid.UUID]*model.Patient),
		putPhysios:  make(map[uuid.UUID]*model.Physiotherapist),
		putAppts:    make(map[uuid.UUID]*model.Appointment),
		putApptReqs: make(map[uuid.UUID]*model.AppointmentRequest),
		putResch:    make(map[uuid.UUID]*model.RescheduleRequest),
		delAppts:    make(map[uuid.UUID]bool),
		delApptReqs: make(map[uuid.UUID]bool),
		delResch:    make(map[uuid.UUID]bool),
		dirtySet:    make(map[string]bool),
	}
}

func (tx *Tx) mark(collection string, id uuid.UUID, op Op) {
	if !tx.writable {
		panic("store: write on read-only transaction")
	}
	tx.dirtySet[collection] = true
	tx.events = append(tx.events, ChangeEvent{Collection: collection, EntityID: id, Op: op})
}

func (tx *Tx) dirty() []string {
	out := make([]string, 0, len(tx.dirtySet))
	for name := range tx.dirtySet {
		out = append(out, name)
	}
	return out
}

// --- patients ---

func (tx *Tx) GetPatient(id uuid.UUID) (*model.Patient, error) {
	if p, ok := tx.putPatients[id]; ok {
		cp := *p
		return &cp, nil
	}
	p, ok := tx.s.patients[id]
	if !ok {
		return nil, errors.NotFound("patient", nil)
	}
	cp := *p
	return &cp, nil
}

func (tx *Tx) PutPatient(p *model.Patient) {
	op := OpUpdated
	if _, exists := tx.s.patients[p.ID]; !exists {
		if _, staged := tx.putPatients[p.ID]; !staged {
			op = OpCreated
		}
	}
	cp := *p
	cp.UpdatedAt = now()
	if op == OpCreated && cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	tx.putPatients[p.ID] = &cp
	tx.mark(CollectionPatients, p.ID, op)
}

// --- physiotherapists ---

func (tx *Tx) GetPhysiotherapist(id uuid.UUID) (*model.Physiotherapist, error) {
	if p, ok := tx.putPhysios[id]; ok {
		cp := *p
		cp.PatientIDs = append([]uuid.UUID(nil), p.PatientIDs...)
		return &cp, nil
	}
	p, ok := tx.s.physiotherapists[id]
	if !ok {
		return nil, errors.NotFound("physiotherapist", nil)
	}
	cp := *p
	cp.PatientIDs = append([]uuid.UUID(nil), p.PatientIDs...)
	return &cp, nil
}

func (tx *Tx) PutPhysiotherapist(p *model.Physiotherapist) {
	op := OpUpdated
	if _, exists := tx.s.physiotherapists[p.ID]; !exists {
		if _, staged := tx.putPhysios[p.ID]; !staged {
			op = OpCreated
		}
	}
	cp := *p
	cp.PatientIDs = append([]uuid.UUID(nil), p.PatientIDs...)
	cp.UpdatedAt = now()
	if op == OpCreated && cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	tx.putPhysios[p.ID] = &cp
	tx.mark(CollectionPhysiotherapists, p.ID, op)
}

func (tx *Tx) FindPhysiotherapistByEmail(email string) (*model.Physiotherapist, error) {
	for _, p := range tx.putPhysios {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	for _, p := range tx.s.physiotherapists {
		if strings.EqualFold(p.Email, email) {
			if staged, ok := tx.putPhysios[p.ID]; ok {
				cp := *staged
				return &cp, nil
			}
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("physiotherapist", nil)
}

// --- appointments ---

func (tx *Tx) GetAppointment(id uuid.UUID) (*model.Appointment, error) {
	if tx.delAppts[id] {
		return nil, errors.NotFound("appointment", nil)
	}
	if a, ok := tx.putAppts[id]; ok {
		cp := *a
		return &cp, nil
	}
	a, ok := tx.s.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	cp := *a
	return &cp, nil
}

func (tx *Tx) PutAppointment(a *model.Appointment) {
	_, live := tx.s.appointments[a.ID]
	_, staged := tx.putAppts[a.ID]
	op := OpUpdated
	if !live && !staged {
		op = OpCreated
		tx.newAppts = append(tx.newAppts, a.ID)
	}
	cp := *a
	cp.UpdatedAt = now()
	if op == OpCreated && cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	delete(tx.delAppts, a.ID)
	tx.putAppts[a.ID] = &cp
	tx.mark(CollectionAppointments, a.ID, op)
}

func (tx *Tx) DeleteAppointment(id uuid.UUID) {
	delete(tx.putAppts, id)
	tx.delAppts[id] = true
	tx.mark(CollectionAppointments, id, OpDeleted)
}

// Appointments visits every appointment in insertion order, staged writes
// included. Return false from visit to stop early.
func (tx *Tx) Appointments(visit func(*model.Appointment) bool) {
	seen := make(map[uuid.UUID]bool)
	walk := func(id uuid.UUID) bool {
		if seen[id] || tx.delAppts[id] {
			return true
		}
		seen[id] = true
		a, ok := tx.putAppts[id]
		if !ok {
			a, ok = tx.s.appointments[id]
		}
		if !ok {
			return true
		}
		cp := *a
		return visit(&cp)
	}
	for _, id := range tx.s.appointmentOrder {
		if !walk(id) {
			return
		}
	}
	for _, id := range tx.newAppts {
		if !walk(id) {
			return
		}
	}
}

// --- appointment requests ---

func (tx *Tx) GetAppointmentRequest(id uuid.UUID) (*model.AppointmentRequest, error) {
	if tx.delApptReqs[id] {
		return nil, errors.NotFound("appointment request", nil)
	}
	if r, ok := tx.putApptReqs[id]; ok {
		cp := *r
		return &cp, nil
	}
	r, ok := tx.s.apptRequests[id]
	if !ok {
		return nil, errors.NotFound("appointment request", nil)
	}
	cp := *r
	return &cp, nil
}

func (tx *Tx) PutAppointmentRequest(r *model.AppointmentRequest) {
	_, live := tx.s.apptRequests[r.ID]
	_, staged := tx.putApptReqs[r.ID]
	op := OpUpdated
	if !live && !staged {
		op = OpCreated
		tx.newApptReqs = append(tx.newApptReqs, r.ID)
	}
	cp := *r
	cp.UpdatedAt = now()
	if op == OpCreated && cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	delete(tx.delApptReqs, r.ID)
	tx.putApptReqs[r.ID] = &cp
	tx.mark(CollectionAppointmentRequests, r.ID, op)
}

func (tx *Tx) DeleteAppointmentRequest(id uuid.UUID) {
	delete(tx.putApptReqs, id)
	tx.delApptReqs[id] = true
	tx.mark(CollectionAppointmentRequests, id, OpDeleted)
}

func (tx *Tx) AppointmentRequests(visit func(*model.AppointmentRequest) bool) {
	seen := make(map[uuid.UUID]bool)
	walk := func(id uuid.UUID) bool {
		if seen[id] || tx.delApptReqs[id] {
			return true
		}
		seen[id] = true
		r, ok := tx.putApptReqs[id]
		if !ok {
			r, ok = tx.s.apptRequests[id]
		}
		if !ok {
			return true
		}
		cp := *r
		return visit(&cp)
	}
	for _, id := range tx.s.apptRequestOrder {
		if !walk(id) {
			return
		}
	}
	for _, id := range tx.newApptReqs {
		if !walk(id) {
			return
		}
	}
}

// --- reschedule requests ---

func (tx *Tx) GetRescheduleRequest(id uuid.UUID) (*model.RescheduleRequest, error) {
	if tx.delResch[id] {
		return nil, errors.NotFound("reschedule request", nil)
	}
	if r, ok := tx.putResch[id]; ok {
		cp := *r
		return &cp, nil
	}
	r, ok := tx.s.reschedules[id]
	if !ok {
		return nil, errors.NotFound("reschedule request", nil)
	}
	cp := *r
	return &cp, nil
}

func (tx *Tx) PutRescheduleRequest(r *model.RescheduleRequest) {
	_, live := tx.s.reschedules[r.ID]
	_, staged := tx.putResch[r.ID]
	op := OpUpdated
	if !live && !staged {
		op = OpCreated
		tx.newResch = append(tx.newResch, r.ID)
	}
	cp := *r
	cp.UpdatedAt = now()
	if op == OpCreated && cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	delete(tx.delResch, r.ID)
	tx.putResch[r.ID] = &cp
	tx.mark(CollectionRescheduleRequests, r.ID, op)
}

func (tx *Tx) DeleteRescheduleRequest(id uuid.UUID) {
	delete(tx.putResch, id)
	tx.delResch[id] = true
	tx.mark(CollectionRescheduleRequests, id, OpDeleted)
}

func (tx *Tx) RescheduleRequests(visit func(*model.RescheduleRequest) bool) {
	seen := make(map[uuid.UUID]bool)
	walk := func(id uuid.UUID) bool {
		if seen[id] || tx.delResch[id] {
			return true
		}
		seen[id] = true
		r, ok := tx.putResch[id]
		if !ok {
			r, ok = tx.s.reschedules[id]
		}
		if !ok {
			return true
		}
		cp := *r
		return visit(&cp)
	}
	for _, id := range tx.s.rescheduleOrder {
		if !walk(id) {
			return
		}
	}
	for _, id := range tx.newResch {
		if !walk(id) {
			return
		}
	}
}

// commit applies staged writes into the live maps. Caller holds the write
// lock.
func (tx *Tx) commit() {
	for id, p := range tx.putPatients {
		tx.s.patients[id] = p
	}
	for id, p := range tx.putPhysios {
		tx.s.physiotherapists[id] = p
	}
	for _, id := range tx.newAppts {
		if _, staged := tx.putAppts[id]; staged {
			tx.s.appointmentOrder = append(tx.s.appointmentOrder, id)
		}
	}
	for id, a := range tx.putAppts {
		tx.s.appointments[id] = a
	}
	for id := range tx.delAppts {
		delete(tx.s.appointments, id)
	}
	for _, id := range tx.newApptReqs {
		if _, staged := tx.putApptReqs[id]; staged {
			tx.s.apptRequestOrder = append(tx.s.apptRequestOrder, id)
		}
	}
	for id, r := range tx.putApptReqs {
		tx.s.apptRequests[id] = r
	}
	for id := range tx.delApptReqs {
		delete(tx.s.apptRequests, id)
	}
	for _, id := range tx.newResch {
		if _, staged := tx.putResch[id]; staged {
			tx.s.rescheduleOrder = append(tx.s.rescheduleOrder, id)
		}
	}
	for id, r := range tx.putResch {
		tx.s.reschedules[id] = r
	}
	for id := range tx.delResch {
		delete(tx.s.reschedules, id)
	}

	// Deleted IDs stay in the order slices; marshalCollection skips them.
}
