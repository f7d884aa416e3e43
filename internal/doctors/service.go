package doctors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrAlreadyApplied    = errors.New("already applied")
	ErrNotFound          = errors.New("doctor not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo      Repository
	userFlags UserFlags
	location  *time.Location
}

func NewService(repo Repository, userFlags UserFlags, location *time.Location) *Service {
	return &Service{
		repo:      repo,
		userFlags: userFlags,
		location:  location,
	}
}

func (s *Service) ListApproved(ctx context.Context) ([]models.Doctor, error) {
	return s.repo.ListApproved(ctx)
}

func (s *Service) SearchBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error) {
	return s.repo.ListApprovedBySpeciality(ctx, strings.TrimSpace(speciality))
}

func (s *Service) Get(ctx context.Context, id string) (models.Doctor, error) {
	doctor, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}
	return doctor, nil
}

// Apply submits the actor's doctor application. A user applies at most once
// ever; the unique index on userId backs the existence probe against
// concurrent submissions.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, req ApplyRequest) (models.Doctor, error) {
	_, err := s.repo.GetByOwner(ctx, actor.ID)
	if err == nil {
		return models.Doctor{}, ErrAlreadyApplied
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Doctor{}, err
	}

	now := time.Now().In(s.location)
	doctor := models.Doctor{
		ID:         primitive.NewObjectID().Hex(),
		UserID:     actor.ID,
		Image:      strings.TrimSpace(req.Image),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Address:    strings.TrimSpace(req.Address),
		About:      strings.TrimSpace(req.About),
		Speciality: strings.TrimSpace(req.Speciality),
		Degree:     strings.TrimSpace(req.Degree),
		Experience: strings.TrimSpace(req.Experience),
		Hospital:   strings.TrimSpace(req.Hospital),
		Fee:        req.Fee,
		TimeFrom:   req.TimeFrom,
		TimeTo:     req.TimeTo,
		Status:     models.DoctorStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Doctor{}, ErrAlreadyApplied
		}
		return models.Doctor{}, err
	}

	return doctor, nil
}

func (s *Service) ApplicationStatus(ctx context.Context, actor auth.Actor) (ApplicationStatus, error) {
	doctor, err := s.repo.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ApplicationStatus{HasApplied: false}, nil
		}
		return ApplicationStatus{}, err
	}
	return ApplicationStatus{
		HasApplied: true,
		Status:     doctor.Status,
		Doctor:     &doctor,
	}, nil
}

func (s *Service) ProfileByOwner(ctx context.Context, actor auth.Actor) (models.Doctor, error) {
	doctor, err := s.repo.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}
	return doctor, nil
}

// UpdateProfile lets the owning doctor edit profile fields. Empty fields are
// left as stored; status is never writable here.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Actor, req UpdateProfileRequest) (models.Doctor, error) {
	doctor, err := s.repo.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}

	set := bson.M{}
	setIf := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			set[key] = v
		}
	}
	setIf("name", req.Name)
	setIf("phone", req.Phone)
	setIf("address", req.Address)
	setIf("about", req.About)
	setIf("speciality", req.Speciality)
	setIf("degree", req.Degree)
	setIf("experience", req.Experience)
	setIf("hospital", req.Hospital)
	setIf("timeFrom", req.TimeFrom)
	setIf("timeTo", req.TimeTo)
	setIf("image", req.Image)
	if req.Fee > 0 {
		set["fee"] = req.Fee
	}
	if len(set) == 0 {
		return doctor, nil
	}

	updated, err := s.repo.UpdateFields(ctx, doctor.ID, set, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}
	return updated, nil
}

func (s *Service) AdminList(ctx context.Context, actor auth.Actor) ([]models.Doctor, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	return s.repo.ListAll(ctx)
}

// SetStatus applies an admin transition and mirrors it onto the owning
// user's isDoctor flag. The two writes are not transactional; when the flag
// write fails the doctor status is compensated back so the pair is never
// left observably mismatched.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, id, status string) (models.Doctor, error) {
	if !actor.IsAdmin {
		return models.Doctor{}, ErrNotAuthorized
	}
	if !models.IsValidDoctorStatus(status) {
		return models.Doctor{}, ErrInvalidTransition
	}

	doctor, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}
	if !CanTransition(doctor.Status, status) {
		return models.Doctor{}, ErrInvalidTransition
	}

	now := time.Now().In(s.location)
	updated, err := s.repo.SetStatus(ctx, doctor.ID, status, now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Doctor{}, ErrNotFound
		}
		return models.Doctor{}, err
	}

	isDoctor := status == models.DoctorStatusApproved
	if err := s.userFlags.SetDoctorFlag(ctx, doctor.UserID, isDoctor, now); err != nil {
		if _, revertErr := s.repo.SetStatus(ctx, doctor.ID, doctor.Status, now); revertErr != nil {
			return models.Doctor{}, fmt.Errorf("user flag update failed: %w (status revert also failed: %v)", err, revertErr)
		}
		return models.Doctor{}, fmt.Errorf("user flag update failed: %w", err)
	}

	return updated, nil
}

// PurgeByOwner removes a user's doctor record, if any, as part of the admin
// account delete cascade.
func (s *Service) PurgeByOwner(ctx context.Context, actor auth.Actor, userID string) error {
	if !actor.IsAdmin {
		return ErrNotAuthorized
	}
	return s.repo.DeleteByOwner(ctx, userID)
}

func (s *Service) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.repo.CountByStatus(ctx, status)
}

func (s *Service) Approve(ctx context.Context, actor auth.Actor, id string) (models.Doctor, error) {
	return s.SetStatus(ctx, actor, id, models.DoctorStatusApproved)
}

func (s *Service) Block(ctx context.Context, actor auth.Actor, id string) (models.Doctor, error) {
	return s.SetStatus(ctx, actor, id, models.DoctorStatusBlocked)
}
