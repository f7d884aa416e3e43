package appointments

import (
	"testing"

	"docbook-backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	if !CanTransition(models.AppointmentStatusPending, models.AppointmentStatusApproved) {
		t.Fatalf("expected pending -> approved to be legal")
	}
	if !CanTransition(models.AppointmentStatusPending, models.AppointmentStatusCancelled) {
		t.Fatalf("expected pending -> cancelled to be legal")
	}
	if !CanTransition(models.AppointmentStatusApproved, models.AppointmentStatusCompleted) {
		t.Fatalf("expected approved -> completed to be legal")
	}
	if !CanTransition(models.AppointmentStatusApproved, models.AppointmentStatusCancelled) {
		t.Fatalf("expected approved -> cancelled to be legal")
	}
}

func TestCanTransitionTerminal(t *testing.T) {
	if CanTransition(models.AppointmentStatusCompleted, models.AppointmentStatusApproved) {
		t.Fatalf("expected completed to be terminal")
	}
	if CanTransition(models.AppointmentStatusCancelled, models.AppointmentStatusPending) {
		t.Fatalf("expected cancelled to be terminal")
	}
	if CanTransition(models.AppointmentStatusPending, models.AppointmentStatusCompleted) {
		t.Fatalf("expected pending -> completed to be illegal")
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("unknown", models.AppointmentStatusApproved) {
		t.Fatalf("expected unknown source status to be illegal")
	}
	if CanTransition(models.AppointmentStatusPending, "unknown") {
		t.Fatalf("expected unknown target status to be illegal")
	}
}

func TestDoctorMayMove(t *testing.T) {
	if !DoctorMayMove(models.AppointmentStatusPending, models.AppointmentStatusApproved) {
		t.Fatalf("expected doctor pending -> approved to be granted")
	}
	if !DoctorMayMove(models.AppointmentStatusPending, models.AppointmentStatusCancelled) {
		t.Fatalf("expected doctor pending -> cancelled to be granted")
	}
	if !DoctorMayMove(models.AppointmentStatusApproved, models.AppointmentStatusCompleted) {
		t.Fatalf("expected doctor approved -> completed to be granted")
	}
}

func TestDoctorMayMoveDenied(t *testing.T) {
	// approved -> cancelled is in the status graph but not granted to the
	// doctor.
	if DoctorMayMove(models.AppointmentStatusApproved, models.AppointmentStatusCancelled) {
		t.Fatalf("expected doctor approved -> cancelled to be denied")
	}
	if DoctorMayMove(models.AppointmentStatusCompleted, models.AppointmentStatusApproved) {
		t.Fatalf("expected doctor completed -> approved to be denied")
	}
}
