package models

import (
	"time"

	"github.com/google/uuid"
)

type LeadKind string

const (
	LeadAppointment    LeadKind = "appointment"
	LeadInfoRequest    LeadKind = "info-request"
	LeadConsultation   LeadKind = "consultation"
	LeadInsuranceCheck LeadKind = "insurance-check"
)

// LeadKinds lists every kind in a stable order.
var LeadKinds = []LeadKind{LeadAppointment, LeadInfoRequest, LeadConsultation, LeadInsuranceCheck}

func (k LeadKind) Valid() bool {
	switch k {
	case LeadAppointment, LeadInfoRequest, LeadConsultation, LeadInsuranceCheck:
		return true
	}
	return false
}

// ContactField is the JSON key of the kind-specific third field, or "" when
// the kind collects only name and email.
func (k LeadKind) ContactField() string {
	switch k {
	case LeadAppointment, LeadConsultation:
		return "phone"
	case LeadInsuranceCheck:
		return "insuranceProvider"
	}
	return ""
}

type Lead struct {
	ID                uuid.UUID         `json:"id"`
	Kind              LeadKind          `json:"kind"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone,omitempty"`
	InsuranceProvider string            `json:"insuranceProvider,omitempty"`
	Fields            map[string]string `json:"fields,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ContactMessage is a website contact form submission.
type ContactMessage struct {
	ID                int64     `json:"id"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Message           string    `json:"message"`
	ContactPreference string    `json:"contactPreference"`
	AppointmentType   string    `json:"appointmentType"`
	CreatedAt         time.Time `json:"created_at"`
}
