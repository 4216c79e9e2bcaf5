package repository

import (
	"context"
	"errors"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPriceObservationRepository implements PriceObservationRepository.
// Documents are only ever inserted.
type MongoPriceObservationRepository struct {
	collection *mongo.Collection
}

// NewMongoPriceObservationRepository creates a new price history repository
func NewMongoPriceObservationRepository(db *mongo.Database) repository.PriceObservationRepository {
	collection := db.Collection("price_observations")

	// Compound index for per-flight history in time order
	ctx := context.Background()
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "flightId", Value: 1},
			{Key: "observedAt", Value: 1},
		},
	})

	return &MongoPriceObservationRepository{
		collection: collection,
	}
}

// Append inserts an observation
func (r *MongoPriceObservationRepository) Append(ctx context.Context, observation *entity.PriceObservation) error {
	if observation.ID == "" {
		observation.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, observation)
	return err
}

// Latest returns the most recent observation
func (r *MongoPriceObservationRepository) Latest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	return r.findOne(ctx, flightID, bson.D{{Key: "observedAt", Value: -1}, {Key: "_id", Value: -1}})
}

// Lowest returns the cheapest observation
func (r *MongoPriceObservationRepository) Lowest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	return r.findOne(ctx, flightID, bson.D{{Key: "price", Value: 1}, {Key: "observedAt", Value: 1}})
}

// ListByFlight returns the history oldest first
func (r *MongoPriceObservationRepository) ListByFlight(ctx context.Context, flightID string) ([]*entity.PriceObservation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"flightId": flightID},
		options.Find().SetSort(bson.D{{Key: "observedAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	observations := make([]*entity.PriceObservation, 0)
	if err := cursor.All(ctx, &observations); err != nil {
		return nil, err
	}
	return observations, nil
}

func (r *MongoPriceObservationRepository) findOne(ctx context.Context, flightID string, sort bson.D) (*entity.PriceObservation, error) {
	var observation entity.PriceObservation
	err := r.collection.FindOne(ctx, bson.M{"flightId": flightID}, options.FindOne().SetSort(sort)).Decode(&observation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &observation, nil
}
