package repositories

import (
	"context"
	"errors"
	"fmt"

	"gym_crm_backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FollowupRepository defines the interface for followup document operations.
type FollowupRepository interface {
	Create(ctx context.Context, followup *models.Followup) error
	FindAll(ctx context.Context, status string) ([]models.Followup, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Followup, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Followup, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type followupRepository struct {
	coll *mongo.Collection
}

// NewFollowupRepository creates a new instance of FollowupRepository.
func NewFollowupRepository(coll *mongo.Collection) FollowupRepository {
	return &followupRepository{coll: coll}
}

// Create inserts a new followup document.
func (r *followupRepository) Create(ctx context.Context, followup *models.Followup) error {
	if followup.ID.IsZero() {
		followup.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, followup)
	if err != nil {
		return fmt.Errorf("%w: creating followup: %v", ErrDatabaseError, err)
	}
	return nil
}

// FindAll retrieves followups, newest-first, optionally filtered by status.
func (r *followupRepository) FindAll(ctx context.Context, status string) ([]models.Followup, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: querying followups: %v", ErrDatabaseError, err)
	}
	defer cursor.Close(ctx)

	followups := []models.Followup{}
	if err := cursor.All(ctx, &followups); err != nil {
		return nil, fmt.Errorf("%w: decoding followups: %v", ErrDatabaseError, err)
	}
	return followups, nil
}

// FindByID retrieves a followup by its document id.
func (r *followupRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Followup, error) {
	followup := &models.Followup{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(followup)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting followup by ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return followup, nil
}

// UpdateFields applies a $set of the given fields and returns the updated followup.
func (r *followupRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Followup, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	followup := &models.Followup{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(followup)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating followup ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return followup, nil
}

// Delete removes a followup document.
func (r *followupRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: deleting followup ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
