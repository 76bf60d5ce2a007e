package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotScheduled = errors.New("appointment is not scheduled")

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCanceled  AppointmentStatus = "Canceled"
)

// Appointment is a dated booking of one grid marker
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	PatientID       string            `gorm:"type:varchar(100);not null;index" json:"patient_id" bson:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id" bson:"doctor_id"`
	DoctorName      string            `gorm:"type:varchar(255);not null" json:"doctor_name" bson:"doctor_name"`
	AppointmentDate time.Time         `gorm:"type:date;not null;index" json:"appointment_date" bson:"appointment_date"`
	AppointmentTime string            `gorm:"type:varchar(50);not null" json:"appointment_time" bson:"appointment_time"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'Scheduled';index" json:"status" bson:"status"`
	ClinicLocation  string            `gorm:"type:text" json:"clinic_location" bson:"clinic_location"`
	DoctorContact   string            `gorm:"type:varchar(50)" json:"doctor_contact" bson:"doctor_contact"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsScheduled checks if appointment is in scheduled status
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// IsCanceled checks if appointment is canceled
func (a *Appointment) IsCanceled() bool {
	return a.Status == AppointmentStatusCanceled
}

// Cancel moves a scheduled appointment to canceled. Canceled appointments never come back.
func (a *Appointment) Cancel() error {
	if !a.IsScheduled() {
		return ErrAppointmentNotScheduled
	}
	a.Status = AppointmentStatusCanceled
	return nil
}

// DayName returns the grid weekday the appointment occupies
func (a *Appointment) DayName() string {
	return WeekdayName(a.AppointmentDate)
}

// DateString returns the appointment date as YYYY-MM-DD
func (a *Appointment) DateString() string {
	return a.AppointmentDate.Format(DateLayout)
}

// CompareAppointments orders appointments by date, then by the start time of the slot
func CompareAppointments(a, b Appointment) int {
	if c := a.AppointmentDate.Compare(b.AppointmentDate); c != 0 {
		return c
	}
	return CompareSlotLabels(a.AppointmentTime, b.AppointmentTime)
}
