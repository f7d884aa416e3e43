package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrDoctorUnavailable = errors.New("doctor unavailable")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNotFound          = errors.New("appointment not found")
	ErrNoDoctorProfile   = errors.New("doctor profile not found")
	ErrInvalidStatus     = errors.New("invalid status")
)

// DoctorDirectory is the read-only view of doctor records the booking flow
// consults. Implemented by the doctors repository.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (models.Doctor, error)
	GetByOwner(ctx context.Context, userID string) (models.Doctor, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	location *time.Location
}

func NewService(repo Repository, doctors DoctorDirectory, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		location: location,
	}
}

// Book creates a pending appointment for the actor if the doctor is approved
// and the slot is free. The existence probe is advisory; the storage-level
// unique index decides races, and its violation surfaces as ErrSlotTaken just
// like a pre-check hit.
func (s *Service) Book(ctx context.Context, actor auth.Actor, req BookRequest) (models.Appointment, error) {
	doctor, err := s.doctors.GetByID(ctx, strings.TrimSpace(req.DoctorID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrDoctorUnavailable
		}
		return models.Appointment{}, err
	}
	if doctor.Status != models.DoctorStatusApproved {
		return models.Appointment{}, ErrDoctorUnavailable
	}

	taken, err := s.repo.SlotTaken(ctx, doctor.ID, req.Date, req.Time)
	if err != nil {
		return models.Appointment{}, err
	}
	if taken {
		return models.Appointment{}, ErrSlotTaken
	}

	now := time.Now().In(s.location)
	appointment := models.Appointment{
		ID:       primitive.NewObjectID().Hex(),
		UserID:   actor.ID,
		DoctorID: doctor.ID,
		UserInfo: models.UserSnapshot{
			Username: actor.Username,
			Email:    actor.Email,
			Image:    actor.Image,
		},
		DoctorInfo: models.DoctorSnapshot{
			Name:       doctor.Name,
			Email:      doctor.Email,
			Speciality: doctor.Speciality,
			Hospital:   doctor.Hospital,
			Fee:        doctor.Fee,
			Image:      doctor.Image,
		},
		Date:      req.Date,
		Time:      req.Time,
		Symptoms:  strings.TrimSpace(req.Symptoms),
		Status:    models.AppointmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Appointment{}, ErrSlotTaken
		}
		return models.Appointment{}, err
	}

	return appointment, nil
}

// UpdateStatus applies a doctor-side transition. The actor must own the
// doctor record the appointment references.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id, status string) (models.Appointment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsValidAppointmentStatus(status) {
		return models.Appointment{}, ErrInvalidStatus
	}

	appointment, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}

	doctor, err := s.doctors.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotAuthorized
		}
		return models.Appointment{}, err
	}
	if doctor.ID != appointment.DoctorID {
		return models.Appointment{}, ErrNotAuthorized
	}

	if !DoctorMayMove(appointment.Status, status) {
		return models.Appointment{}, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appointment.ID, appointment.Status, status, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost a race with a concurrent transition.
			return models.Appointment{}, ErrInvalidTransition
		}
		return models.Appointment{}, err
	}
	return updated, nil
}

// Cancel is the owning user's single permitted move: pending -> cancelled.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id string) (models.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}

	if appointment.UserID != actor.ID {
		return models.Appointment{}, ErrNotAuthorized
	}
	if appointment.Status != models.AppointmentStatusPending {
		return models.Appointment{}, ErrNotAuthorized
	}

	updated, err := s.repo.UpdateStatus(ctx, appointment.ID, models.AppointmentStatusPending, models.AppointmentStatusCancelled, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost a race with a concurrent transition.
			return models.Appointment{}, ErrInvalidTransition
		}
		return models.Appointment{}, err
	}
	return updated, nil
}

func (s *Service) ListForUser(ctx context.Context, actor auth.Actor) ([]models.Appointment, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

func (s *Service) ListForDoctor(ctx context.Context, actor auth.Actor) ([]models.Appointment, error) {
	doctor, err := s.doctors.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDoctorProfile
		}
		return nil, err
	}
	return s.repo.ListByDoctor(ctx, doctor.ID)
}

// PurgeForUser removes every appointment a user owns, as part of the admin
// account delete cascade.
func (s *Service) PurgeForUser(ctx context.Context, actor auth.Actor, userID string) error {
	if !actor.IsAdmin {
		return ErrNotAuthorized
	}
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.CountAll(ctx)
}
