package models

import "time"

const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusApproved  = "approved"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"

	DoctorStatusPending  = "pending"
	DoctorStatusApproved = "approved"
	DoctorStatusBlocked  = "blocked"
)

var validAppointmentStatuses = map[string]struct{}{
	AppointmentStatusPending:   {},
	AppointmentStatusApproved:  {},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

var validDoctorStatuses = map[string]struct{}{
	DoctorStatusPending:  {},
	DoctorStatusApproved: {},
	DoctorStatusBlocked:  {},
}

func IsValidAppointmentStatus(value string) bool {
	_, ok := validAppointmentStatuses[value]
	return ok
}

func IsValidDoctorStatus(value string) bool {
	_, ok := validDoctorStatuses[value]
	return ok
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Image        string    `bson:"image,omitempty" json:"image,omitempty"`
	IsAdmin      bool      `bson:"isAdmin" json:"isAdmin"`
	IsDoctor     bool      `bson:"isDoctor" json:"isDoctor"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Doctor struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Image      string    `bson:"image,omitempty" json:"image,omitempty"`
	Name       string    `bson:"name" json:"name"`
	Email      string    `bson:"email" json:"email"`
	Phone      string    `bson:"phone" json:"phone"`
	Address    string    `bson:"address" json:"address"`
	About      string    `bson:"about" json:"about"`
	Speciality string    `bson:"speciality" json:"speciality"`
	Degree     string    `bson:"degree" json:"degree"`
	Experience string    `bson:"experience" json:"experience"`
	Hospital   string    `bson:"hospital" json:"hospital"`
	Fee        int       `bson:"fee" json:"fee"`
	TimeFrom   string    `bson:"timeFrom" json:"timeFrom"`
	TimeTo     string    `bson:"timeTo" json:"timeTo"`
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserSnapshot and DoctorSnapshot are captured on the appointment at booking
// time and are intentionally never synced with later profile edits.
type UserSnapshot struct {
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Image    string `bson:"image,omitempty" json:"image,omitempty"`
}

type DoctorSnapshot struct {
	Name       string `bson:"name" json:"name"`
	Email      string `bson:"email" json:"email"`
	Speciality string `bson:"speciality" json:"speciality"`
	Hospital   string `bson:"hospital" json:"hospital"`
	Fee        int    `bson:"fee" json:"fee"`
	Image      string `bson:"image,omitempty" json:"image,omitempty"`
}

type Appointment struct {
	ID         string         `bson:"_id,omitempty" json:"id"`
	UserID     string         `bson:"userId" json:"userId"`
	DoctorID   string         `bson:"doctorId" json:"doctorId"`
	UserInfo   UserSnapshot   `bson:"userInfo" json:"userInfo"`
	DoctorInfo DoctorSnapshot `bson:"doctorInfo" json:"doctorInfo"`
	Date       string         `bson:"date" json:"date"`
	Time       string         `bson:"time" json:"time"`
	Symptoms   string         `bson:"symptoms,omitempty" json:"symptoms,omitempty"`
	Status     string         `bson:"status" json:"status"`
	CreatedAt  time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt" json:"updatedAt"`
}
