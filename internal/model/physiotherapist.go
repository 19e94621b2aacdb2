package model

import (
	"github.com/google/uuid"
)

type Physiotherapist struct {
	Base
	Name       string      `db:"name" json:"name"`
	Email      string      `db:"email" json:"email"`
	PatientIDs []uuid.UUID `db:"patient_ids" json:"patient_ids"`
}

// HasPatient reports whether the patient is already on this
// physiotherapist's list.
func (p *Physiotherapist) HasPatient(id uuid.UUID) bool {
	for _, pid := range p.PatientIDs {
		if pid == id {
			return true
		}
	}
	return false
}

type RegisterPhysiotherapistRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}
