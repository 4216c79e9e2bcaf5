package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEcreditRequestRepository implements EcreditRequestRepository.
// A unique partial index on openFlightId rejects a second unresolved
// request for the same flight, even across processes.
type MongoEcreditRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoEcreditRequestRepository creates a new ecredit request repository
func NewMongoEcreditRequestRepository(db *mongo.Database) repository.EcreditRequestRepository {
	collection := db.Collection("ecredit_requests")

	ctx := context.Background()

	// Only unresolved requests carry openFlightId
	openIndex := mongo.IndexModel{
		Keys: bson.M{"openFlightId": 1},
		Options: options.Index().
			SetUnique(true).
			SetName("open_request_per_flight").
			SetPartialFilterExpression(bson.M{"openFlightId": bson.M{"$exists": true}}),
	}

	// Index for reconciliation queues
	statusIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "requestedAt", Value: 1},
		},
	}

	flightIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "flightId", Value: 1},
			{Key: "requestedAt", Value: -1},
		},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		openIndex,
		statusIndex,
		flightIndex,
	})

	return &MongoEcreditRequestRepository{
		collection: collection,
	}
}

// CreateIfNoneOpen inserts the request unless one is already open for the flight
func (r *MongoEcreditRequestRepository) CreateIfNoneOpen(ctx context.Context, request *entity.EcreditRequest) (*entity.EcreditRequest, bool, error) {
	existing, err := r.FindOpenByFlight(ctx, request.FlightID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if request.ID == "" {
		request.ID = primitive.NewObjectID().Hex()
	}
	request.OpenFlightID = request.FlightID

	_, err = r.collection.InsertOne(ctx, request)
	if mongo.IsDuplicateKeyError(err) {
		// lost the race to a concurrent pass
		existing, findErr := r.FindOpenByFlight(ctx, request.FlightID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("open request for flight %s vanished after duplicate key: %w", request.FlightID, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return request, true, nil
}

// FindByID finds a request by ID
func (r *MongoEcreditRequestRepository) FindByID(ctx context.Context, id string) (*entity.EcreditRequest, error) {
	var request entity.EcreditRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindOpenByFlight finds the unresolved request of a flight
func (r *MongoEcreditRequestRepository) FindOpenByFlight(ctx context.Context, flightID string) (*entity.EcreditRequest, error) {
	var request entity.EcreditRequest
	err := r.collection.FindOne(ctx, bson.M{"openFlightId": flightID}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Transition applies the update atomically when the status matches from
func (r *MongoEcreditRequestRepository) Transition(ctx context.Context, id string, from []entity.EcreditStatus, update entity.EcreditUpdate) (*entity.EcreditRequest, error) {
	set := bson.M{
		"status":    update.Status,
		"updatedAt": update.UpdatedAt,
	}
	if update.StartedAt != nil {
		set["startedAt"] = update.StartedAt
	}
	if update.CompletedAt != nil {
		set["completedAt"] = update.CompletedAt
	}
	if update.EcreditAmount != nil {
		set["ecreditAmount"] = update.EcreditAmount
	}
	if update.EcreditCode != "" {
		set["ecreditCode"] = update.EcreditCode
	}
	if update.ExpiresAt != nil {
		set["expiresAt"] = update.ExpiresAt
	}
	if update.Notes != "" {
		set["notes"] = update.Notes
	}
	if update.Channel != "" {
		set["channel"] = update.Channel
	}

	doc := bson.M{"$set": set}
	if update.IncrementAttempts {
		doc["$inc"] = bson.M{"attempts": 1}
	}
	if update.Status.Resolved() {
		doc["$unset"] = bson.M{"openFlightId": ""}
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}

	var updated entity.EcreditRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, doc,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, entity.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListByStatus returns requests in a status, oldest first
func (r *MongoEcreditRequestRepository) ListByStatus(ctx context.Context, status entity.EcreditStatus, limit int) ([]*entity.EcreditRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"status": status}, opts)
}

// ListStartedBefore returns requests in a status whose last start is older than before
func (r *MongoEcreditRequestRepository) ListStartedBefore(ctx context.Context, status entity.EcreditStatus, before time.Time) ([]*entity.EcreditRequest, error) {
	filter := bson.M{
		"status":    status,
		"startedAt": bson.M{"$lt": before},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}}))
}

// ListByFlight returns a flight's requests newest first
func (r *MongoEcreditRequestRepository) ListByFlight(ctx context.Context, flightID string) ([]*entity.EcreditRequest, error) {
	return r.find(ctx, bson.M{"flightId": flightID},
		options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}}))
}

func (r *MongoEcreditRequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.EcreditRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*entity.EcreditRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
