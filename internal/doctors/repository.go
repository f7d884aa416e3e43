package doctors

import (
	"context"
	"time"

	"docbook-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, doctor models.Doctor) error
	GetByID(ctx context.Context, id string) (models.Doctor, error)
	GetByOwner(ctx context.Context, userID string) (models.Doctor, error)
	ListApproved(ctx context.Context) ([]models.Doctor, error)
	ListApprovedBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error)
	ListAll(ctx context.Context) ([]models.Doctor, error)
	UpdateFields(ctx context.Context, id string, set bson.M, now time.Time) (models.Doctor, error)
	SetStatus(ctx context.Context, id, status string, now time.Time) (models.Doctor, error)
	DeleteByOwner(ctx context.Context, userID string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// UserFlags mirrors doctor status changes onto the owning user's isDoctor
// capability flag.
type UserFlags interface {
	SetDoctorFlag(ctx context.Context, userID string, isDoctor bool, now time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, doctor models.Doctor) error {
	_, err := r.col.InsertOne(ctx, doctor)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Doctor, error) {
	var doctor models.Doctor
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor); err != nil {
		return models.Doctor{}, err
	}
	return doctor, nil
}

func (r *MongoRepository) GetByOwner(ctx context.Context, userID string) (models.Doctor, error) {
	var doctor models.Doctor
	if err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&doctor); err != nil {
		return models.Doctor{}, err
	}
	return doctor, nil
}

func (r *MongoRepository) ListApproved(ctx context.Context) ([]models.Doctor, error) {
	return r.list(ctx, bson.M{"status": models.DoctorStatusApproved})
}

func (r *MongoRepository) ListApprovedBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error) {
	filter := bson.M{
		"status":     models.DoctorStatusApproved,
		"speciality": bson.M{"$regex": speciality, "$options": "i"},
	}
	return r.list(ctx, filter)
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]models.Doctor, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoRepository) list(ctx context.Context, filter bson.M) ([]models.Doctor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Doctor, 0)
	for cursor.Next(ctx) {
		var doctor models.Doctor
		if err := cursor.Decode(&doctor); err != nil {
			return nil, err
		}
		items = append(items, doctor)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) UpdateFields(ctx context.Context, id string, set bson.M, now time.Time) (models.Doctor, error) {
	set["updatedAt"] = now
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Doctor
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.Doctor{}, err
	}
	return updated, nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, id, status string, now time.Time) (models.Doctor, error) {
	return r.UpdateFields(ctx, id, bson.M{"status": status}, now)
}

func (r *MongoRepository) DeleteByOwner(ctx context.Context, userID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

func (r *MongoRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	if status == "" {
		return r.col.CountDocuments(ctx, bson.M{})
	}
	return r.col.CountDocuments(ctx, bson.M{"status": status})
}

type MongoUserFlags struct {
	col *mongo.Collection
}

func NewUserFlags(col *mongo.Collection) *MongoUserFlags {
	return &MongoUserFlags{col: col}
}

func (u *MongoUserFlags) SetDoctorFlag(ctx context.Context, userID string, isDoctor bool, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"isDoctor":  isDoctor,
			"updatedAt": now,
		},
	}
	res, err := u.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
