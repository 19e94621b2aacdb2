package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/logger"
)

// Service is the identity side of the system: registration and lookup of
// patients and physiotherapists. The lifecycle engines resolve names and
// denormalized fields through it.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

func NewService(st *store.Store, log *logger.Logger) *Service {
	return &Service{store: st, log: log}
}

func (s *Service) RegisterPatient(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New()},
		Name:   req.Name,
		Email:  req.Email,
		Injury: req.Injury,
	}
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		tx.PutPatient(patient)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("patient registered", "patient_id", patient.ID.String())
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient *model.Patient
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		patient, err = tx.GetPatient(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) RegisterPhysiotherapist(ctx context.Context, req *model.RegisterPhysiotherapistRequest) (*model.Physiotherapist, error) {
	physio := &model.Physiotherapist{
		Base:  model.Base{ID: uuid.New()},
		Name:  req.Name,
		Email: req.Email,
	}
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		tx.PutPhysiotherapist(physio)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("physiotherapist registered", "physiotherapist_id", physio.ID.String())
	return physio, nil
}

func (s *Service) GetPhysiotherapist(ctx context.Context, id uuid.UUID) (*model.Physiotherapist, error) {
	var physio *model.Physiotherapist
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		physio, err = tx.GetPhysiotherapist(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return physio, nil
}

func (s *Service) GetPhysiotherapistByEmail(ctx context.Context, email string) (*model.Physiotherapist, error) {
	var physio *model.Physiotherapist
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		physio, err = tx.FindPhysiotherapistByEmail(email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return physio, nil
}

// AssignPatient links a patient to a physiotherapist in both directions.
func (s *Service) AssignPatient(ctx context.Context, physioID, patientID uuid.UUID) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		physio, err := tx.GetPhysiotherapist(physioID)
		if err != nil {
			return err
		}
		patient, err := tx.GetPatient(patientID)
		if err != nil {
			return err
		}

		if !physio.HasPatient(patientID) {
			physio.PatientIDs = append(physio.PatientIDs, patientID)
			tx.PutPhysiotherapist(physio)
		}
		if patient.PhysiotherapistID == nil || *patient.PhysiotherapistID != physioID {
			pid := physioID
			patient.PhysiotherapistID = &pid
			tx.PutPatient(patient)
		}
		return nil
	})
}
