package main

import (
	"context"
	"log"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/config"
	"docbook-backend/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	if cfg.AdminPassword == "" {
		log.Fatal("seed admin: ADMIN_PASSWORD is required")
	}

	if err := seedAdminUser(ctx, cols, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.Timezone); err != nil {
		log.Fatalf("seed admin error for %s: %v", cfg.AdminUsername, err)
	}

	log.Println("seed completed")
}

func seedAdminUser(ctx context.Context, cols *db.Collections, username, email, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	filter := bson.M{"email": email}
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"isAdmin":      true,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"username":  username,
			"email":     email,
			"isDoctor":  false,
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
