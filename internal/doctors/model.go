package doctors

import "docbook-backend/internal/models"

// statusTransitions is the application lifecycle: pending -> approved|blocked,
// and approved <-> blocked (blocking is reversible, unlike appointments).
var statusTransitions = map[string]map[string]bool{
	models.DoctorStatusPending: {
		models.DoctorStatusApproved: true,
		models.DoctorStatusBlocked:  true,
	},
	models.DoctorStatusApproved: {
		models.DoctorStatusBlocked: true,
	},
	models.DoctorStatusBlocked: {
		models.DoctorStatusApproved: true,
	},
}

func CanTransition(from, to string) bool {
	return statusTransitions[from][to]
}

type ApplyRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"required"`
	About      string `json:"about" validate:"required"`
	Speciality string `json:"speciality" validate:"required"`
	Degree     string `json:"degree" validate:"required"`
	Experience string `json:"experience" validate:"required"`
	Hospital   string `json:"hospital" validate:"required"`
	Fee        int    `json:"fee" validate:"required,gte=0"`
	TimeFrom   string `json:"timeFrom" validate:"required,clock"`
	TimeTo     string `json:"timeTo" validate:"required,clock"`
	Image      string `json:"image"`
}

// UpdateProfileRequest carries optional fields; empty values leave the stored
// field untouched. Status is deliberately absent.
type UpdateProfileRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	Address    string `json:"address"`
	About      string `json:"about"`
	Speciality string `json:"speciality"`
	Degree     string `json:"degree"`
	Experience string `json:"experience"`
	Hospital   string `json:"hospital"`
	Fee        int    `json:"fee" validate:"omitempty,gte=0"`
	TimeFrom   string `json:"timeFrom" validate:"omitempty,clock"`
	TimeTo     string `json:"timeTo" validate:"omitempty,clock"`
	Image      string `json:"image"`
}

type ApplicationStatus struct {
	HasApplied bool           `json:"hasApplied"`
	Status     string         `json:"status,omitempty"`
	Doctor     *models.Doctor `json:"doctor,omitempty"`
}
