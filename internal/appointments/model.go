package appointments

import "docbook-backend/internal/models"

// transitions is the exhaustive status graph. completed and cancelled are
// terminal; absence from the table means the move is never legal for anyone.
var transitions = map[string]map[string]bool{
	models.AppointmentStatusPending: {
		models.AppointmentStatusApproved:  true,
		models.AppointmentStatusCancelled: true,
	},
	models.AppointmentStatusApproved: {
		models.AppointmentStatusCompleted: true,
		models.AppointmentStatusCancelled: true,
	},
	models.AppointmentStatusCompleted: {},
	models.AppointmentStatusCancelled: {},
}

func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// doctorMoves are the transitions the owning doctor may perform. Note that
// approved->cancelled, while present in the status graph, is not granted to
// the doctor; the owning user holds pending->cancelled only.
var doctorMoves = map[string]map[string]bool{
	models.AppointmentStatusPending: {
		models.AppointmentStatusApproved:  true,
		models.AppointmentStatusCancelled: true,
	},
	models.AppointmentStatusApproved: {
		models.AppointmentStatusCompleted: true,
	},
}

func DoctorMayMove(from, to string) bool {
	return doctorMoves[from][to]
}

type BookRequest struct {
	DoctorID string `json:"doctorId" validate:"required"`
	Date     string `json:"date" validate:"required,date"`
	Time     string `json:"time" validate:"required,clock"`
	Symptoms string `json:"symptoms"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved completed cancelled"`
}
