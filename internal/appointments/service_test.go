package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	appointments map[string]models.Appointment
	createErr    error
	updateErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appointments: make(map[string]models.Appointment)}
}

func (f *fakeRepo) Create(ctx context.Context, appointment models.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, a := range f.appointments {
		if a.DoctorID == appointment.DoctorID && a.Date == appointment.Date && a.Time == appointment.Time && a.Status != models.AppointmentStatusCancelled {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return models.Appointment{}, mongo.ErrNoDocuments
	}
	return a, nil
}

func (f *fakeRepo) SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error) {
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeSlot && a.Status != models.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, from, to string, now time.Time) (models.Appointment, error) {
	if f.updateErr != nil {
		return models.Appointment{}, f.updateErr
	}
	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return models.Appointment{}, mongo.ErrNoDocuments
	}
	a.Status = to
	a.UpdatedAt = now
	f.appointments[id] = a
	return a, nil
}

func (f *fakeRepo) DeleteByUser(ctx context.Context, userID string) error {
	for id, a := range f.appointments {
		if a.UserID == userID {
			delete(f.appointments, id)
		}
	}
	return nil
}

func (f *fakeRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.appointments)), nil
}

type fakeDirectory struct {
	doctors map[string]models.Doctor
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (models.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return models.Doctor{}, mongo.ErrNoDocuments
	}
	return d, nil
}

func (f *fakeDirectory) GetByOwner(ctx context.Context, userID string) (models.Doctor, error) {
	for _, d := range f.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return models.Doctor{}, mongo.ErrNoDocuments
}

func testService(repo *fakeRepo, dir *fakeDirectory) *Service {
	return NewService(repo, dir, time.UTC)
}

func approvedDoctor() models.Doctor {
	return models.Doctor{
		ID:         "doc1",
		UserID:     "owner1",
		Name:       "Dr. Amadi",
		Email:      "amadi@clinic.test",
		Speciality: "Cardiology",
		Hospital:   "Central Clinic",
		Fee:        50,
		Status:     models.DoctorStatusApproved,
	}
}

func patient() auth.Actor {
	return auth.Actor{ID: "user1", Username: "pat", Email: "pat@mail.test"}
}

func TestBookSuccess(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	req := BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30", Symptoms: "headache"}
	appt, err := svc.Book(context.Background(), patient(), req)
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if appt.Status != models.AppointmentStatusPending {
		t.Fatalf("expected pending status, got %q", appt.Status)
	}
	if appt.UserID != "user1" || appt.DoctorID != "doc1" {
		t.Fatalf("unexpected ownership: user=%q doctor=%q", appt.UserID, appt.DoctorID)
	}
	if appt.UserInfo.Username != "pat" || appt.UserInfo.Email != "pat@mail.test" {
		t.Fatalf("unexpected user snapshot: %+v", appt.UserInfo)
	}
	if appt.DoctorInfo.Name != "Dr. Amadi" || appt.DoctorInfo.Fee != 50 {
		t.Fatalf("unexpected doctor snapshot: %+v", appt.DoctorInfo)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(repo.appointments))
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	svc := testService(newFakeRepo(), &fakeDirectory{doctors: map[string]models.Doctor{}})

	_, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "nope", Date: "2026-09-10", Time: "10:30"})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("expected ErrDoctorUnavailable, got %v", err)
	}
}

func TestBookUnapprovedDoctor(t *testing.T) {
	doc := approvedDoctor()
	doc.Status = models.DoctorStatusPending
	svc := testService(newFakeRepo(), &fakeDirectory{doctors: map[string]models.Doctor{"doc1": doc}})

	_, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("expected ErrDoctorUnavailable, got %v", err)
	}
}

func TestBookSlotTaken(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	req := BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"}
	if _, err := svc.Book(context.Background(), patient(), req); err != nil {
		t.Fatalf("first Book error: %v", err)
	}

	other := auth.Actor{ID: "user2", Username: "other", Email: "other@mail.test"}
	_, err := svc.Book(context.Background(), other, req)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookDuplicateKeyRace(t *testing.T) {
	// The advisory probe misses; the storage unique index rejects the insert.
	repo := newFakeRepo()
	repo.createErr = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	_, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookAfterCancelFreesSlot(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	req := BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"}
	appt, err := svc.Book(context.Background(), user, req)
	if err != nil {
		t.Fatalf("first Book error: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), user, appt.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	if _, err := svc.Book(context.Background(), user, req); err != nil {
		t.Fatalf("rebooking after cancel should succeed, got %v", err)
	}
}

func TestUpdateStatusApprove(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	appt, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	owner := auth.Actor{ID: "owner1", IsDoctor: true}
	updated, err := svc.UpdateStatus(context.Background(), owner, appt.ID, models.AppointmentStatusApproved)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != models.AppointmentStatusApproved {
		t.Fatalf("expected approved, got %q", updated.Status)
	}
}

func TestUpdateStatusWrongDoctor(t *testing.T) {
	repo := newFakeRepo()
	other := approvedDoctor()
	other.ID = "doc2"
	other.UserID = "owner2"
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor(), "doc2": other}}
	svc := testService(repo, dir)

	appt, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), auth.Actor{ID: "owner2", IsDoctor: true}, appt.ID, models.AppointmentStatusApproved)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestUpdateStatusNoDoctorProfile(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	appt, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), auth.Actor{ID: "nobody"}, appt.ID, models.AppointmentStatusApproved)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestUpdateStatusIllegalMove(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	owner := auth.Actor{ID: "owner1", IsDoctor: true}
	appt, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), owner, appt.ID, models.AppointmentStatusApproved); err != nil {
		t.Fatalf("approve error: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), owner, appt.ID, models.AppointmentStatusCompleted); err != nil {
		t.Fatalf("complete error: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), owner, appt.ID, models.AppointmentStatusApproved)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	_, err := svc.UpdateStatus(context.Background(), auth.Actor{ID: "owner1", IsDoctor: true}, "any", "archived")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	_, err := svc.UpdateStatus(context.Background(), auth.Actor{ID: "owner1", IsDoctor: true}, "missing", models.AppointmentStatusApproved)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelByOwner(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	appt, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), user, appt.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != models.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}
}

func TestCancelByOtherUser(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	appt, err := svc.Book(context.Background(), patient(), BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	_, err = svc.Cancel(context.Background(), auth.Actor{ID: "user2"}, appt.ID)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestCancelApprovedDenied(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	appt, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	owner := auth.Actor{ID: "owner1", IsDoctor: true}
	if _, err := svc.UpdateStatus(context.Background(), owner, appt.ID, models.AppointmentStatusApproved); err != nil {
		t.Fatalf("approve error: %v", err)
	}

	_, err = svc.Cancel(context.Background(), user, appt.ID)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestCancelLostRace(t *testing.T) {
	// The appointment is pending at the ownership check but the conditional
	// update misses because the status moved concurrently.
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	appt, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	repo.updateErr = mongo.ErrNoDocuments
	_, err = svc.Cancel(context.Background(), user, appt.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPurgeForUser(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	if _, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"}); err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if _, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-11", Time: "11:00"}); err != nil {
		t.Fatalf("Book error: %v", err)
	}

	if err := svc.PurgeForUser(context.Background(), auth.Actor{ID: "admin1", IsAdmin: true}, user.ID); err != nil {
		t.Fatalf("PurgeForUser error: %v", err)
	}

	count, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 appointments after purge, got %d", count)
	}
}

func TestPurgeForUserNonAdmin(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{doctors: map[string]models.Doctor{"doc1": approvedDoctor()}}
	svc := testService(repo, dir)

	user := patient()
	if _, err := svc.Book(context.Background(), user, BookRequest{DoctorID: "doc1", Date: "2026-09-10", Time: "10:30"}); err != nil {
		t.Fatalf("Book error: %v", err)
	}

	err := svc.PurgeForUser(context.Background(), auth.Actor{ID: "user2"}, user.ID)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("expected appointment untouched, got %d", len(repo.appointments))
	}
}

func TestListForDoctorWithoutProfile(t *testing.T) {
	svc := testService(newFakeRepo(), &fakeDirectory{doctors: map[string]models.Doctor{}})

	_, err := svc.ListForDoctor(context.Background(), auth.Actor{ID: "nobody", IsDoctor: true})
	if !errors.Is(err, ErrNoDoctorProfile) {
		t.Fatalf("expected ErrNoDoctorProfile, got %v", err)
	}
}
