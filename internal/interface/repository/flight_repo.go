package repository

import (
	"context"
	"errors"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFlightRepository implements FlightRepository
type MongoFlightRepository struct {
	collection *mongo.Collection
}

// NewMongoFlightRepository creates a new flight repository
func NewMongoFlightRepository(db *mongo.Database) repository.FlightRepository {
	collection := db.Collection("flights")

	ctx := context.Background()
	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "departureDate", Value: 1}}},
		{Keys: bson.M{"userId": 1}},
	})

	return &MongoFlightRepository{
		collection: collection,
	}
}

// Create inserts a new flight and assigns its ID
func (r *MongoFlightRepository) Create(ctx context.Context, flight *entity.Flight) error {
	if flight.ID == "" {
		flight.ID = primitive.NewObjectID().Hex()
	}
	if flight.CreatedAt.IsZero() {
		flight.CreatedAt = time.Now().UTC()
	}
	flight.UpdatedAt = flight.CreatedAt

	_, err := r.collection.InsertOne(ctx, flight)
	return err
}

// FindByID finds a flight by ID
func (r *MongoFlightRepository) FindByID(ctx context.Context, id string) (*entity.Flight, error) {
	var flight entity.Flight
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&flight)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

// ListActive returns every active flight ordered by departure date
func (r *MongoFlightRepository) ListActive(ctx context.Context) ([]*entity.Flight, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "departureDate", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var flights []*entity.Flight
	if err := cursor.All(ctx, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

// Deactivate soft-deletes a flight
func (r *MongoFlightRepository) Deactivate(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"active": false})
}

// UpdateOriginalPrice replaces the flight's baseline price
func (r *MongoFlightRepository) UpdateOriginalPrice(ctx context.Context, id string, price float64) error {
	return r.updateOne(ctx, id, bson.M{"originalPrice": price})
}

func (r *MongoFlightRepository) updateOne(ctx context.Context, id string, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
