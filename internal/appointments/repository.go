package appointments

import (
	"context"
	"time"

	"docbook-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, appointment models.Appointment) error
	GetByID(ctx context.Context, id string) (models.Appointment, error)
	SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id, from, to string, now time.Time) (models.Appointment, error)
	DeleteByUser(ctx context.Context, userID string) error
	CountAll(ctx context.Context) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, appointment models.Appointment) error {
	_, err := r.col.InsertOne(ctx, appointment)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	var appointment models.Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		return models.Appointment{}, err
	}
	return appointment, nil
}

// SlotTaken reports whether a non-cancelled appointment already occupies the
// slot. Advisory only: the partial unique index is the backstop for races
// between this probe and the insert.
func (r *MongoRepository) SlotTaken(ctx context.Context, doctorID, date, timeSlot string) (bool, error) {
	filter := bson.M{
		"doctorId": doctorID,
		"date":     date,
		"time":     timeSlot,
		"status":   bson.M{"$nin": []string{models.AppointmentStatusCancelled}},
	}
	err := r.col.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *MongoRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return r.list(ctx, bson.M{"doctorId": doctorID})
}

func (r *MongoRepository) list(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Appointment, 0)
	for cursor.Next(ctx) {
		var appointment models.Appointment
		if err := cursor.Decode(&appointment); err != nil {
			return nil, err
		}
		items = append(items, appointment)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateStatus applies the transition only if the document still carries the
// expected current status, so concurrent transitions lose cleanly. Returns
// mongo.ErrNoDocuments when the document is gone or the status moved.
func (r *MongoRepository) UpdateStatus(ctx context.Context, id, from, to string, now time.Time) (models.Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"updatedAt": now,
		},
	}

	var updated models.Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&updated); err != nil {
		return models.Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

func (r *MongoRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
