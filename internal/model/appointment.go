package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	// AppointmentStatusRequested marks a placeholder created by a patient
	// booking request that no physiotherapist has acted on yet.
	AppointmentStatusRequested          AppointmentStatus = "requested"
	AppointmentStatusConfirmed          AppointmentStatus = "confirmed"
	AppointmentStatusRescheduleProposed AppointmentStatus = "reschedule_proposed"
	AppointmentStatusCancelled          AppointmentStatus = "cancelled"
)

// Badge is the display classification shown to both parties. Requested and
// reschedule_proposed appointments both surface as pending.
type Badge string

const (
	BadgePending   Badge = "pending"
	BadgeConfirmed Badge = "confirmed"
	BadgeCancelled Badge = "cancelled"
)

// Appointment is the single authoritative record for a session. Patient
// history and physiotherapist roster are views filtered from the appointment
// table, never embedded copies.
type Appointment struct {
	Base
	PatientID         uuid.UUID         `db:"patient_id" json:"patient_id"`
	PhysiotherapistID uuid.UUID         `db:"physiotherapist_id" json:"physiotherapist_id"`
	Date              time.Time         `db:"date" json:"date"`
	TimeOfDay         string            `db:"time_of_day" json:"time_of_day"`
	Summary           string            `db:"summary" json:"summary,omitempty"`
	Status            AppointmentStatus `db:"status" json:"status"`
	CancelReason      *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type BookAppointmentRequest struct {
	PatientID         uuid.UUID `json:"patient_id" binding:"required"`
	PhysiotherapistID uuid.UUID `json:"physiotherapist_id" binding:"required"`
	Date              time.Time `json:"date" binding:"required"`
	TimeOfDay         string    `json:"time_of_day" binding:"required,clocktime"`
	Summary           string    `json:"summary" validate:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	Notify *bool  `json:"notify"`
}

type AppointmentFilters struct {
	PatientID         uuid.UUID
	PhysiotherapistID uuid.UUID
	Status            AppointmentStatus
	From              time.Time
	To                time.Time
}
