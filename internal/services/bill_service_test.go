package services

import (
	"context"
	"errors"
	"testing"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeBillRepo is a function-field stub for BillRepository. Unset fields fall
// back to not-found or no-op behavior.
type fakeBillRepo struct {
	createFn              func(ctx context.Context, bill *models.GymBill) error
	findByIDFn            func(ctx context.Context, id primitive.ObjectID) (*models.GymBill, error)
	findByMemberIDFn      func(ctx context.Context, memberID string) (*models.GymBill, error)
	findAllFn             func(ctx context.Context) ([]models.GymBill, error)
	updateFieldsFn        func(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error)
	renewFn               func(ctx context.Context, id primitive.ObjectID, entry models.RenewalEntry, fields bson.M) (*models.GymBill, error)
	replaceRenewalEntryFn func(ctx context.Context, billID, entryID primitive.ObjectID, entry models.RenewalEntry) (int64, int64, error)
	pullRenewalEntryFn    func(ctx context.Context, billID, entryID primitive.ObjectID) (*models.GymBill, error)
	recordPaymentFn       func(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error)
	deleteFn              func(ctx context.Context, id primitive.ObjectID) error
}

func (f *fakeBillRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeBillRepo) Create(ctx context.Context, bill *models.GymBill) error {
	if f.createFn != nil {
		return f.createFn(ctx, bill)
	}
	return nil
}

func (f *fakeBillRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GymBill, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) FindByMemberID(ctx context.Context, memberID string) (*models.GymBill, error) {
	if f.findByMemberIDFn != nil {
		return f.findByMemberIDFn(ctx, memberID)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) FindAll(ctx context.Context) ([]models.GymBill, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return []models.GymBill{}, nil
}

func (f *fakeBillRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error) {
	if f.updateFieldsFn != nil {
		return f.updateFieldsFn(ctx, id, fields)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) Renew(ctx context.Context, id primitive.ObjectID, entry models.RenewalEntry, fields bson.M) (*models.GymBill, error) {
	if f.renewFn != nil {
		return f.renewFn(ctx, id, entry, fields)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) ReplaceRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID, entry models.RenewalEntry) (int64, int64, error) {
	if f.replaceRenewalEntryFn != nil {
		return f.replaceRenewalEntryFn(ctx, billID, entryID, entry)
	}
	return 0, 0, nil
}

func (f *fakeBillRepo) PullRenewalEntry(ctx context.Context, billID, entryID primitive.ObjectID) (*models.GymBill, error) {
	if f.pullRenewalEntryFn != nil {
		return f.pullRenewalEntryFn(ctx, billID, entryID)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) RecordPayment(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
	if f.recordPaymentFn != nil {
		return f.recordPaymentFn(ctx, id, amountPaid, balance, entry)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeBillRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return repositories.ErrNotFound
}

// fakeFollowupRepo records created followups and delete calls.
type fakeFollowupRepo struct {
	created      []*models.Followup
	deleteCalled bool
	createFn     func(ctx context.Context, followup *models.Followup) error
}

func (f *fakeFollowupRepo) Create(ctx context.Context, followup *models.Followup) error {
	if f.createFn != nil {
		return f.createFn(ctx, followup)
	}
	f.created = append(f.created, followup)
	return nil
}

func (f *fakeFollowupRepo) FindAll(ctx context.Context, status string) ([]models.Followup, error) {
	return []models.Followup{}, nil
}

func (f *fakeFollowupRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Followup, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeFollowupRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Followup, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeFollowupRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.deleteCalled = true
	return repositories.ErrNotFound
}

func newTestBillService(billRepo *fakeBillRepo, followupRepo *fakeFollowupRepo) BillService {
	if billRepo == nil {
		billRepo = &fakeBillRepo{}
	}
	if followupRepo == nil {
		followupRepo = &fakeFollowupRepo{}
	}
	return NewBillService(billRepo, followupRepo)
}

func TestCreateBill_ComputesBalanceAndSeedsHistory(t *testing.T) {
	var saved *models.GymBill
	repo := &fakeBillRepo{
		createFn: func(ctx context.Context, bill *models.GymBill) error {
			saved = bill
			return nil
		},
	}
	svc := newTestBillService(repo, nil)

	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		MemberID:         "GYM-001",
		Client:           "Arun",
		Package:          "Quarterly",
		Price:            "1000",
		AdmissionCharges: "200",
		DiscountAmount:   "100",
		AmountPaid:       "300",
		Status:           "whatever",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, 800.0, bill.Balance)
	assert.Equal(t, models.StatusActive, bill.Status)
	assert.NotNil(t, bill.PaymentHistory)
	assert.Len(t, bill.PaymentHistory, 0)

	require.Len(t, bill.RenewalHistory, 1)
	first := bill.RenewalHistory[0]
	assert.False(t, first.ID.IsZero())
	assert.Equal(t, "Quarterly", first.Package)
	assert.Equal(t, 1000.0, first.Price)
	assert.Equal(t, 300.0, first.AmountPaid)
	assert.Equal(t, 800.0, first.Balance)
}

func TestCreateBill_NonNumericAmountsCoerceToZero(t *testing.T) {
	svc := newTestBillService(nil, nil)

	bill, err := svc.CreateBill(context.Background(), CreateBillRequest{
		MemberID:   "GYM-002",
		Price:      "abc",
		AmountPaid: "",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bill.Price)
	assert.Equal(t, 0.0, bill.Balance)
}

func TestCreateBill_EmptyPayload(t *testing.T) {
	svc := newTestBillService(nil, nil)

	_, err := svc.CreateBill(context.Background(), CreateBillRequest{}, nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestCreateBill_BlankMemberID(t *testing.T) {
	svc := newTestBillService(nil, nil)

	_, err := svc.CreateBill(context.Background(), CreateBillRequest{MemberID: "   ", Client: "Arun"}, nil)
	assert.ErrorIs(t, err, ErrMemberIDRequired)
}

func TestCreateBill_DuplicateMemberID(t *testing.T) {
	repo := &fakeBillRepo{
		findByMemberIDFn: func(ctx context.Context, memberID string) (*models.GymBill, error) {
			return &models.GymBill{MemberID: memberID}, nil
		},
	}
	svc := newTestBillService(repo, nil)

	_, err := svc.CreateBill(context.Background(), CreateBillRequest{MemberID: "GYM-001"}, nil)
	assert.ErrorIs(t, err, ErrMemberIDExists)
}

func TestCreateBill_DuplicateKeyOnInsert(t *testing.T) {
	repo := &fakeBillRepo{
		createFn: func(ctx context.Context, bill *models.GymBill) error {
			return repositories.ErrDuplicateKey
		},
	}
	svc := newTestBillService(repo, nil)

	_, err := svc.CreateBill(context.Background(), CreateBillRequest{MemberID: "GYM-001"}, nil)
	assert.ErrorIs(t, err, ErrMemberIDExists)
}

func TestGetBills_AddsDerivedTotal(t *testing.T) {
	repo := &fakeBillRepo{
		findAllFn: func(ctx context.Context) ([]models.GymBill, error) {
			return []models.GymBill{
				{
					MemberID:   "GYM-001",
					AmountPaid: 100,
					RenewalHistory: []models.RenewalEntry{
						{AmountPaid: 50},
						{AmountPaid: 25},
					},
				},
				{MemberID: "GYM-002", AmountPaid: 10},
			}, nil
		},
	}
	svc := newTestBillService(repo, nil)

	bills, err := svc.GetBills(context.Background())
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, 175.0, bills[0].TotalPaidIncludingRenewals)
	assert.Equal(t, 10.0, bills[1].TotalPaidIncludingRenewals)
}

func TestGetBillByID_InvalidID(t *testing.T) {
	svc := newTestBillService(nil, nil)

	_, err := svc.GetBillByID(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrInvalidBillID)
}

func TestUpdateBill_OnlyWritesProvidedFields(t *testing.T) {
	var gotFields bson.M
	repo := &fakeBillRepo{
		updateFieldsFn: func(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error) {
			gotFields = fields
			return &models.GymBill{}, nil
		},
	}
	svc := newTestBillService(repo, nil)

	client := "Arun"
	price := "750"
	_, err := svc.UpdateBill(context.Background(), primitive.NewObjectID().Hex(), UpdateBillRequest{
		Client: &client,
		Price:  &price,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Arun", gotFields["client"])
	assert.Equal(t, 750.0, gotFields["price"])
	assert.NotContains(t, gotFields, "contactNumber")
	assert.NotContains(t, gotFields, "amountPaid")
	// Status re-normalizes on every edit even when the form omits it.
	assert.Equal(t, models.StatusActive, gotFields["status"])
	assert.Contains(t, gotFields, "updatedAt")
}

func TestUpdateBill_SetsPictureWhenUploaded(t *testing.T) {
	var gotFields bson.M
	repo := &fakeBillRepo{
		updateFieldsFn: func(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.GymBill, error) {
			gotFields = fields
			return &models.GymBill{}, nil
		},
	}
	svc := newTestBillService(repo, nil)

	picture := &models.ProfilePicture{Data: []byte{0x1}, ContentType: "image/png"}
	_, err := svc.UpdateBill(context.Background(), primitive.NewObjectID().Hex(), UpdateBillRequest{}, picture)
	require.NoError(t, err)
	assert.Equal(t, picture, gotFields["profilePicture"])
}

func TestRenewBill_RecomputesBalanceAndReactivates(t *testing.T) {
	var gotEntry models.RenewalEntry
	var gotFields bson.M
	repo := &fakeBillRepo{
		renewFn: func(ctx context.Context, id primitive.ObjectID, entry models.RenewalEntry, fields bson.M) (*models.GymBill, error) {
			gotEntry = entry
			gotFields = fields
			return &models.GymBill{Status: models.StatusActive}, nil
		},
	}
	svc := newTestBillService(repo, nil)

	bill, err := svc.RenewBill(context.Background(), primitive.NewObjectID().Hex(), RenewBillRequest{
		JoiningDate:      "2026-01-01",
		EndDate:          "2026-04-01",
		Package:          "Quarterly",
		Price:            2000,
		AdmissionCharges: 0,
		DiscountAmount:   500,
		AmountPaid:       1000,
		Trainer:          "Vikram",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, bill.Status)

	assert.False(t, gotEntry.ID.IsZero())
	assert.Equal(t, 500.0, gotEntry.Balance)
	assert.Equal(t, "Quarterly", gotEntry.Package)

	assert.Equal(t, 500.0, gotFields["balance"])
	assert.Equal(t, models.StatusActive, gotFields["status"])
	assert.Equal(t, "Vikram", gotFields["appointTrainer"])
}

func TestRenewBill_NotFound(t *testing.T) {
	svc := newTestBillService(&fakeBillRepo{}, nil)

	_, err := svc.RenewBill(context.Background(), primitive.NewObjectID().Hex(), RenewBillRequest{})
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestEditRenewalEntry_ReportsCounts(t *testing.T) {
	repo := &fakeBillRepo{
		replaceRenewalEntryFn: func(ctx context.Context, billID, entryID primitive.ObjectID, entry models.RenewalEntry) (int64, int64, error) {
			return 1, 1, nil
		},
	}
	svc := newTestBillService(repo, nil)

	matched, modified, err := svc.EditRenewalEntry(context.Background(),
		primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex(), RenewalEntryUpdate{Package: "Annual"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
	assert.Equal(t, int64(1), modified)
}

func TestEditRenewalEntry_MissEntryIsNotAnError(t *testing.T) {
	svc := newTestBillService(&fakeBillRepo{}, nil)

	matched, modified, err := svc.EditRenewalEntry(context.Background(),
		primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex(), RenewalEntryUpdate{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), matched)
	assert.Equal(t, int64(0), modified)
}

func TestEditRenewalEntry_InvalidEntryID(t *testing.T) {
	svc := newTestBillService(nil, nil)

	_, _, err := svc.EditRenewalEntry(context.Background(), primitive.NewObjectID().Hex(), "bogus", RenewalEntryUpdate{})
	assert.ErrorIs(t, err, ErrInvalidBillID)
}

func TestDeleteBill_DoesNotCascadeToFollowups(t *testing.T) {
	repo := &fakeBillRepo{
		deleteFn: func(ctx context.Context, id primitive.ObjectID) error { return nil },
	}
	followups := &fakeFollowupRepo{}
	svc := newTestBillService(repo, followups)

	err := svc.DeleteBill(context.Background(), primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.False(t, followups.deleteCalled)
}

func TestDeleteBill_NotFound(t *testing.T) {
	svc := newTestBillService(&fakeBillRepo{}, nil)

	err := svc.DeleteBill(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestRecordPayment_StoresVerbatimAndAppendsEntry(t *testing.T) {
	var gotAmountPaid, gotBalance float64
	var gotEntry models.PaymentEntry
	repo := &fakeBillRepo{
		recordPaymentFn: func(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
			gotAmountPaid = amountPaid
			gotBalance = balance
			gotEntry = entry
			return &models.GymBill{AmountPaid: amountPaid, Balance: balance}, nil
		},
	}
	followups := &fakeFollowupRepo{}
	svc := newTestBillService(repo, followups)

	// The payment path trusts the caller's arithmetic; 500 paid with 9999
	// balance is stored as-is.
	bill, err := svc.RecordPayment(context.Background(), primitive.NewObjectID().Hex(), PaymentRequest{
		AmountPaid: 500,
		Balance:    9999,
		PaymentHistory: PaymentEntryInput{
			Amount: 200,
			Mode:   "UPI",
			Note:   "partial",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, gotAmountPaid)
	assert.Equal(t, 9999.0, gotBalance)
	assert.Equal(t, 200.0, gotEntry.Amount)
	assert.Equal(t, "UPI", gotEntry.Mode)
	assert.False(t, gotEntry.ID.IsZero())
	assert.Equal(t, 500.0, bill.AmountPaid)
	assert.Empty(t, followups.created)
}

func TestRecordPayment_SchedulesFollowupWhenDatePresent(t *testing.T) {
	billID := primitive.NewObjectID()
	repo := &fakeBillRepo{
		recordPaymentFn: func(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
			return &models.GymBill{ID: id}, nil
		},
	}
	followups := &fakeFollowupRepo{}
	svc := newTestBillService(repo, followups)

	_, err := svc.RecordPayment(context.Background(), billID.Hex(), PaymentRequest{
		AmountPaid:     100,
		PaymentHistory: PaymentEntryInput{Amount: 100, Note: "will pay rest next week"},
		FollowUpDate:   "2026-09-06",
	})
	require.NoError(t, err)

	require.Len(t, followups.created, 1)
	fu := followups.created[0]
	assert.Equal(t, billID, fu.Client)
	assert.Equal(t, models.FollowupTypePayment, fu.FollowupType)
	assert.Equal(t, "2026-09-06", fu.ScheduleDate)
	assert.Equal(t, "will pay rest next week", fu.Response)
	assert.Equal(t, models.FollowupStatusPending, fu.Status)
}

func TestRecordPayment_FollowupNoteDefaults(t *testing.T) {
	repo := &fakeBillRepo{
		recordPaymentFn: func(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
			return &models.GymBill{}, nil
		},
	}
	followups := &fakeFollowupRepo{}
	svc := newTestBillService(repo, followups)

	_, err := svc.RecordPayment(context.Background(), primitive.NewObjectID().Hex(), PaymentRequest{
		FollowUpDate: "2026-09-06",
	})
	require.NoError(t, err)
	require.Len(t, followups.created, 1)
	assert.Equal(t, "Payment Follow-up", followups.created[0].Response)
}

func TestRecordPayment_FollowupFailureIsSwallowed(t *testing.T) {
	repo := &fakeBillRepo{
		recordPaymentFn: func(ctx context.Context, id primitive.ObjectID, amountPaid, balance float64, entry models.PaymentEntry) (*models.GymBill, error) {
			return &models.GymBill{}, nil
		},
	}
	followups := &fakeFollowupRepo{
		createFn: func(ctx context.Context, followup *models.Followup) error {
			return errors.New("followup collection unavailable")
		},
	}
	svc := newTestBillService(repo, followups)

	bill, err := svc.RecordPayment(context.Background(), primitive.NewObjectID().Hex(), PaymentRequest{
		FollowUpDate: "2026-09-06",
	})
	require.NoError(t, err)
	assert.NotNil(t, bill)
}

func TestComputeBalance(t *testing.T) {
	assert.Equal(t, 800.0, computeBalance(1000, 200, 100, 300))
	assert.Equal(t, 0.0, computeBalance(0, 0, 0, 0))
	// Overpayment drives the balance negative; nothing clamps it.
	assert.Equal(t, -50.0, computeBalance(100, 0, 0, 150))
}
