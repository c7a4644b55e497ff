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

// BillRepository defines the interface for bill document operations.
type BillRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, bill *models.GymBill) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.GymBill, error)
	FindByMemberID(ctx context.Context, memberID string) (*models.GymBill, error)
	FindAll(ctx context.Context) ([]models.GymBill, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error)
	Renew(ctx context.Context, id primitive.ObjectID, entry models.RenewalEntry, fields bson.M) (*models.GymBill, error)
	ReplaceRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID, entry models.RenewalEntry) (matched, modified int64, err error)
	PullRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID) (*models.GymBill, error)
	RecordPayment(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type billRepository struct {
	coll *mongo.Collection
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(coll *mongo.Collection) BillRepository {
	return &billRepository{coll: coll}
}

// EnsureIndexes creates the unique memberId index. Safe to call on every start.
func (r *billRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "memberId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: creating memberId index: %v", ErrDatabaseError, err)
	}
	return nil
}

// Create inserts a new bill document.
func (r *billRepository) Create(ctx context.Context, bill *models.GymBill) error {
	if bill.ID.IsZero() {
		bill.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, bill)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: memberId %q: %v", ErrDuplicateKey, bill.MemberID, err)
		}
		return fmt.Errorf("%w: creating bill: %v", ErrDatabaseError, err)
	}
	return nil
}

// FindByID retrieves a bill by its document id.
func (r *billRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GymBill, error) {
	bill := &models.GymBill{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting bill by ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return bill, nil
}

// FindByMemberID retrieves a bill by the caller-supplied member id.
func (r *billRepository) FindByMemberID(ctx context.Context, memberID string) (*models.GymBill, error) {
	bill := &models.GymBill{}
	err := r.coll.FindOne(ctx, bson.M{"memberId": memberID}).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting bill by memberId %q: %v", ErrDatabaseError, memberID, err)
	}
	return bill, nil
}

// FindAll retrieves every bill, newest-first by insertion order.
func (r *billRepository) FindAll(ctx context.Context) ([]models.GymBill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bills: %v", ErrDatabaseError, err)
	}
	defer cursor.Close(ctx)

	bills := []models.GymBill{}
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, fmt.Errorf("%w: decoding bills: %v", ErrDatabaseError, err)
	}
	return bills, nil
}

// UpdateFields applies a $set of the given fields and returns the updated bill.
func (r *billRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	bill := &models.GymBill{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating bill ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return bill, nil
}

// Renew appends a renewal snapshot and overwrites the current-terms fields in a
// single document update, so history and current state cannot diverge mid-renewal.
func (r *billRepository) Renew(ctx context.Context, id primitive.ObjectID, entry models.RenewalEntry, fields bson.M) (*models.GymBill, error) {
	update := bson.M{
		"$push": bson.M{"renewalHistory": entry},
		"$set":  fields,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	bill := &models.GymBill{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: renewing bill ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return bill, nil
}

// ReplaceRenewalEntry overwrites the matched embedded entry wholesale via the
// positional operator. A non-matching entry id is a no-op (matched == 0), not an error.
func (r *billRepository) ReplaceRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID, entry models.RenewalEntry) (int64, int64, error) {
	entry.ID = entryID
	filter := bson.M{"_id": billID, "renewalHistory._id": entryID}
	update := bson.M{"$set": bson.M{"renewalHistory.$": entry}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: replacing renewal entry %s on bill %s: %v", ErrDatabaseError, entryID.Hex(), billID.Hex(), err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// PullRenewalEntry removes the matched embedded entry and returns the updated bill.
// A non-matching entry id on an existing bill leaves the history unchanged.
func (r *billRepository) PullRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID) (*models.GymBill, error) {
	update := bson.M{"$pull": bson.M{"renewalHistory": bson.M{"_id": entryID}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	bill := &models.GymBill{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": billID}, update, opts).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: deleting renewal entry %s on bill %s: %v", ErrDatabaseError, entryID.Hex(), billID.Hex(), err)
	}
	return bill, nil
}

// RecordPayment sets amountPaid/balance verbatim and appends one payment entry.
func (r *billRepository) RecordPayment(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
	update := bson.M{
		"$set": bson.M{
			"amountPaid": amountPaid,
			"balance":    balance,
			"updatedAt":  entry.Date,
		},
		"$push": bson.M{"paymentHistory": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	bill := &models.GymBill{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: recording payment on bill ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	return bill, nil
}

// Delete hard-removes a bill document. Followups referencing the bill are untouched.
func (r *billRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: deleting bill ID %s: %v", ErrDatabaseError, id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
