package model

import (
	"time"

	"github.com/google/uuid"
)

type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusAccepted RescheduleStatus = "accepted"
	RescheduleStatusRejected RescheduleStatus = "rejected"
)

// RescheduleRequest is the negotiation record for moving an existing
// appointment. It always carries the appointment ID and is resolved by ID.
type RescheduleRequest struct {
	Base
	AppointmentID uuid.UUID        `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID        `db:"patient_id" json:"patient_id"`
	OriginalDate  time.Time        `db:"original_date" json:"original_date"`
	OriginalTime  string           `db:"original_time" json:"original_time"`
	SuggestedDate *string          `db:"suggested_date" json:"suggested_date,omitempty"`
	SuggestedTime *string          `db:"suggested_time" json:"suggested_time,omitempty"`
	Status        RescheduleStatus `db:"status" json:"status"`
}

type ProposeRescheduleRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	SuggestedDate *string   `json:"suggested_date" binding:"omitempty,displaydate"`
	SuggestedTime *string   `json:"suggested_time" binding:"omitempty,clocktime"`
}

// RespondRescheduleRequest carries the agreed slot when accepting; date and
// time are ignored on rejection.
type RespondRescheduleRequest struct {
	Date      string `json:"date" binding:"omitempty,displaydate"`
	TimeOfDay string `json:"time_of_day" binding:"omitempty,clocktime"`
	Accept    bool   `json:"accept"`
}
