package model

import (
	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// AppointmentRequest is a patient's intent to book, distinct from the
// placeholder Appointment it is linked to via AppointmentID. The date is
// stored in display form ("02 Jan, 2006") and parsed only on approval.
type AppointmentRequest struct {
	Base
	AppointmentID uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	PatientName   string        `db:"patient_name" json:"patient_name"`
	Date          string        `db:"date" json:"date"`
	TimeOfDay     string        `db:"time_of_day" json:"time_of_day"`
	Status        RequestStatus `db:"status" json:"status"`
	Injury        Injury        `db:"injury" json:"injury"`
	Notes         string        `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequestRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	Date      string    `json:"date" binding:"required,displaydate"`
	TimeOfDay string    `json:"time_of_day" binding:"required,clocktime"`
	Injury    Injury    `json:"injury"`
	Notes     string    `json:"notes" validate:"max=1000"`
}

type ApproveAppointmentRequestRequest struct {
	PhysiotherapistID uuid.UUID `json:"physiotherapist_id" binding:"required"`
}
