package model

import (
	"github.com/google/uuid"
)

type InjuryKind string

const (
	InjuryGrade1       InjuryKind = "grade1"
	InjuryGrade2       InjuryKind = "grade2"
	InjuryGrade3       InjuryKind = "grade3"
	InjuryLigamentTear InjuryKind = "ligament_tear"
	InjuryInversion    InjuryKind = "inversion"
	InjuryOther        InjuryKind = "other"
)

// Injury is a tagged variant; Detail is only meaningful for InjuryOther.
type Injury struct {
	Kind   InjuryKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

type Patient struct {
	Base
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	Injury            Injury     `db:"injury" json:"injury"`
	PhysiotherapistID *uuid.UUID `db:"physiotherapist_id" json:"physiotherapist_id,omitempty"`
}

type RegisterPatientRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Injury Injury `json:"injury"`
}
