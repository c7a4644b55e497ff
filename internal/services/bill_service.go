package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Custom Service Errors for Bill ---
var (
	ErrBillNotFound     = errors.New("bill not found")
	ErrEmptyPayload     = errors.New("no data provided")
	ErrMemberIDRequired = errors.New("member ID is required")
	ErrMemberIDExists   = errors.New("member ID already exists")
	ErrInvalidBillID    = errors.New("invalid bill ID format")
)

// --- Bill DTOs ---

// CreateBillRequest carries the multipart create form. Monetary fields arrive as
// strings and coerce to 0 when non-numeric.
type CreateBillRequest struct {
	MemberID         string `form:"memberId"`
	Client           string `form:"client"`
	ContactNumber    string `form:"contactNumber"`
	AlternateContact string `form:"alternateContact"`
	Email            string `form:"email"`
	ClientSource     string `form:"clientSource"`
	Gender           string `form:"gender"`
	DateOfBirth      string `form:"dateOfBirth"`
	Anniversary      string `form:"anniversary"`
	Profession       string `form:"profession"`
	TaxID            string `form:"taxId"`
	WorkoutHours     string `form:"workoutHours"`
	AreaAddress      string `form:"areaAddress"`
	Remarks          string `form:"remarks"`

	Package     string `form:"package"`
	JoiningDate string `form:"joiningDate"`
	EndDate     string `form:"endDate"`
	Sessions    string `form:"sessions"`

	Price            string `form:"price"`
	DiscountAmount   string `form:"discountAmount"`
	AdmissionCharges string `form:"admissionCharges"`
	Tax              string `form:"tax"`
	AmountPayable    string `form:"amountPayable"`
	AmountPaid       string `form:"amountPaid"`
	Amount           string `form:"amount"`

	FollowupDate        string `form:"followupDate"`
	Status              string `form:"status"`
	PaymentMethodDetail string `form:"paymentMethodDetail"`
	AppointTrainer      string `form:"appointTrainer"`
	ClientRep           string `form:"clientRep"`
	Trainer             string `form:"trainer"`
}

// UpdateBillRequest is the allow-listed field set for the general edit. Only
// fields present in the form are written; status always re-normalizes.
type UpdateBillRequest struct {
	Client           *string `form:"client"`
	ContactNumber    *string `form:"contactNumber"`
	AlternateContact *string `form:"alternateContact"`
	Email            *string `form:"email"`
	ClientSource     *string `form:"clientSource"`
	Gender           *string `form:"gender"`
	DateOfBirth      *string `form:"dateOfBirth"`
	Anniversary      *string `form:"anniversary"`
	Profession       *string `form:"profession"`
	TaxID            *string `form:"taxId"`
	WorkoutHours     *string `form:"workoutHours"`
	AreaAddress      *string `form:"areaAddress"`
	Remarks          *string `form:"remarks"`

	Package     *string `form:"package"`
	JoiningDate *string `form:"joiningDate"`
	EndDate     *string `form:"endDate"`
	Sessions    *string `form:"sessions"`

	Price            *string `form:"price"`
	DiscountAmount   *string `form:"discountAmount"`
	AdmissionCharges *string `form:"admissionCharges"`
	Tax              *string `form:"tax"`
	AmountPayable    *string `form:"amountPayable"`
	AmountPaid       *string `form:"amountPaid"`
	Balance          *string `form:"balance"`
	Amount           *string `form:"amount"`

	FollowupDate        *string `form:"followupDate"`
	Status              *string `form:"status"`
	PaymentMethodDetail *string `form:"paymentMethodDetail"`
	AppointTrainer      *string `form:"appointTrainer"`
	ClientRep           *string `form:"clientRep"`
}

// RenewBillRequest carries new membership terms. Any caller-supplied balance is
// ignored; the server recomputes it.
type RenewBillRequest struct {
	JoiningDate      string               `json:"joiningDate"`
	EndDate          string               `json:"endDate"`
	Package          string               `json:"package"`
	Price            utils.FlexibleAmount `json:"price"`
	AdmissionCharges utils.FlexibleAmount `json:"admissionCharges"`
	DiscountAmount   utils.FlexibleAmount `json:"discountAmount"`
	AmountPaid       utils.FlexibleAmount `json:"amountPaid"`
	Remarks          string               `json:"remarks"`
	Trainer          string               `json:"trainer"`
}

// RenewalEntryUpdate replaces a renewal snapshot wholesale; omitted fields zero out.
// The entry's own identifier is always preserved.
type RenewalEntryUpdate struct {
	JoiningDate      string               `json:"joiningDate"`
	EndDate          string               `json:"endDate"`
	Package          string               `json:"package"`
	Price            utils.FlexibleAmount `json:"price"`
	AdmissionCharges utils.FlexibleAmount `json:"admissionCharges"`
	DiscountAmount   utils.FlexibleAmount `json:"discountAmount"`
	AmountPaid       utils.FlexibleAmount `json:"amountPaid"`
	Balance          utils.FlexibleAmount `json:"balance"`
	Remarks          string               `json:"remarks"`
	Trainer          string               `json:"trainer"`
	Date             time.Time            `json:"date"`
}

// PaymentEntryInput is the paymentHistory element of a payment update.
type PaymentEntryInput struct {
	Amount utils.FlexibleAmount `json:"amount"`
	Mode   string               `json:"mode"`
	Note   string               `json:"note"`
}

// PaymentRequest sets amountPaid/balance verbatim and appends one payment entry.
// A non-empty FollowUpDate additionally schedules a payment followup.
type PaymentRequest struct {
	AmountPaid     utils.FlexibleAmount `json:"amountPaid"`
	Balance        utils.FlexibleAmount `json:"balance"`
	PaymentHistory PaymentEntryInput    `json:"paymentHistory"`
	FollowUpDate   string               `json:"followUpDate"`
}

// --- BillService Interface ---
type BillService interface {
	CreateBill(ctx context.Context, req CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error)
	GetBills(ctx context.Context) ([]models.BillWithTotal, error)
	GetBillByID(ctx context.Context, id string) (*models.GymBill, error)
	UpdateBill(ctx context.Context, id string, req UpdateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error)
	RenewBill(ctx context.Context, id string, req RenewBillRequest) (*models.GymBill, error)
	EditRenewalEntry(ctx context.Context, clientID, renewID string, req RenewalEntryUpdate) (matched, modified int64, err error)
	DeleteRenewalEntry(ctx context.Context, clientID, renewID string) (*models.GymBill, error)
	DeleteBill(ctx context.Context, id string) error
	RecordPayment(ctx context.Context, id string, req PaymentRequest) (*models.GymBill, error)
}

// --- billService Implementation ---
type billService struct {
	billRepo     repositories.BillRepository
	followupRepo repositories.FollowupRepository
}

// NewBillService creates a new instance of BillService.
func NewBillService(billRepo repositories.BillRepository, followupRepo repositories.FollowupRepository) BillService {
	return &billService{
		billRepo:     billRepo,
		followupRepo: followupRepo,
	}
}

// computeBalance is the canonical balance formula. Both the create and renew
// paths recompute it server-side; only the payment path trusts caller values.
func computeBalance(price, admissionCharges, discountAmount, amountPaid float64) float64 {
	return price + admissionCharges - discountAmount - amountPaid
}

func parseBillID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidBillID, id)
	}
	return objectID, nil
}

func (s *billService) CreateBill(ctx context.Context, req CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
	if req == (CreateBillRequest{}) && picture == nil {
		return nil, ErrEmptyPayload
	}

	memberID := strings.TrimSpace(req.MemberID)
	if memberID == "" {
		return nil, ErrMemberIDRequired
	}

	_, err := s.billRepo.FindByMemberID(ctx, memberID)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", ErrMemberIDExists, memberID)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check member ID uniqueness: %w", err)
	}

	price := utils.ParseAmount(req.Price)
	admissionCharges := utils.ParseAmount(req.AdmissionCharges)
	discountAmount := utils.ParseAmount(req.DiscountAmount)
	amountPaid := utils.ParseAmount(req.AmountPaid)
	balance := computeBalance(price, admissionCharges, discountAmount, amountPaid)

	now := time.Now()
	firstEntry := models.RenewalEntry{
		ID:               primitive.NewObjectID(),
		JoiningDate:      req.JoiningDate,
		EndDate:          req.EndDate,
		Package:          req.Package,
		Price:            price,
		AdmissionCharges: admissionCharges,
		DiscountAmount:   discountAmount,
		AmountPaid:       amountPaid,
		Balance:          balance,
		Remarks:          req.Remarks,
		Trainer:          req.Trainer,
		Date:             now,
	}

	bill := &models.GymBill{
		MemberID:         memberID,
		Client:           req.Client,
		ContactNumber:    req.ContactNumber,
		AlternateContact: req.AlternateContact,
		Email:            req.Email,
		ClientSource:     req.ClientSource,
		Gender:           req.Gender,
		DateOfBirth:      req.DateOfBirth,
		Anniversary:      req.Anniversary,
		Profession:       req.Profession,
		TaxID:            req.TaxID,
		WorkoutHours:     req.WorkoutHours,
		AreaAddress:      req.AreaAddress,
		Remarks:          req.Remarks,

		ProfilePicture: picture,

		Package:     req.Package,
		JoiningDate: req.JoiningDate,
		EndDate:     req.EndDate,
		Sessions:    utils.ParseCount(req.Sessions),

		Price:            price,
		DiscountAmount:   discountAmount,
		AdmissionCharges: admissionCharges,
		Tax:              utils.ParseAmount(req.Tax),
		AmountPayable:    utils.ParseAmount(req.AmountPayable),
		AmountPaid:       amountPaid,
		Balance:          balance,
		Amount:           utils.ParseAmount(req.Amount),

		FollowupDate: req.FollowupDate,
		Status:       models.NormalizeStatus(strings.TrimSpace(req.Status)),

		PaymentMethodDetail: req.PaymentMethodDetail,
		AppointTrainer:      req.AppointTrainer,
		ClientRep:           req.ClientRep,

		PaymentHistory: []models.PaymentEntry{},
		RenewalHistory: []models.RenewalEntry{firstEntry},

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.billRepo.Create(ctx, bill); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %q", ErrMemberIDExists, memberID)
		}
		return nil, fmt.Errorf("failed to create bill in repository: %w", err)
	}
	return bill, nil
}

func (s *billService) GetBills(ctx context.Context) ([]models.BillWithTotal, error) {
	bills, err := s.billRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}

	result := make([]models.BillWithTotal, 0, len(bills))
	for _, bill := range bills {
		result = append(result, models.BillWithTotal{
			GymBill:                    bill,
			TotalPaidIncludingRenewals: bill.TotalPaidIncludingRenewals(),
		})
	}
	return result, nil
}

func (s *billService) GetBillByID(ctx context.Context, id string) (*models.GymBill, error) {
	objectID, err := parseBillID(id)
	if err != nil {
		return nil, err
	}
	bill, err := s.billRepo.FindByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to get bill by ID: %w", err)
	}
	return bill, nil
}

func (s *billService) UpdateBill(ctx context.Context, id string, req UpdateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
	objectID, err := parseBillID(id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	setString := func(key string, value *string) {
		if value != nil {
			fields[key] = *value
		}
	}
	setAmount := func(key string, value *string) {
		if value != nil {
			fields[key] = utils.ParseAmount(*value)
		}
	}

	setString("client", req.Client)
	setString("contactNumber", req.ContactNumber)
	setString("alternateContact", req.AlternateContact)
	setString("email", req.Email)
	setString("clientSource", req.ClientSource)
	setString("gender", req.Gender)
	setString("dateOfBirth", req.DateOfBirth)
	setString("anniversary", req.Anniversary)
	setString("profession", req.Profession)
	setString("taxId", req.TaxID)
	setString("workoutHours", req.WorkoutHours)
	setString("areaAddress", req.AreaAddress)
	setString("remarks", req.Remarks)
	setString("package", req.Package)
	setString("joiningDate", req.JoiningDate)
	setString("endDate", req.EndDate)
	setString("followupDate", req.FollowupDate)
	setString("paymentMethodDetail", req.PaymentMethodDetail)
	setString("appointTrainer", req.AppointTrainer)
	setString("clientRep", req.ClientRep)

	if req.Sessions != nil {
		fields["sessions"] = utils.ParseCount(*req.Sessions)
	}
	setAmount("price", req.Price)
	setAmount("discountAmount", req.DiscountAmount)
	setAmount("admissionCharges", req.AdmissionCharges)
	setAmount("tax", req.Tax)
	setAmount("amountPayable", req.AmountPayable)
	setAmount("amountPaid", req.AmountPaid)
	setAmount("balance", req.Balance)
	setAmount("amount", req.Amount)

	// Status always re-normalizes: absent or unknown values force Active.
	status := ""
	if req.Status != nil {
		status = strings.TrimSpace(*req.Status)
	}
	fields["status"] = models.NormalizeStatus(status)

	if picture != nil {
		fields["profilePicture"] = picture
	}
	fields["updatedAt"] = time.Now()

	bill, err := s.billRepo.UpdateFields(ctx, objectID, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to update bill in repository: %w", err)
	}
	return bill, nil
}

func (s *billService) RenewBill(ctx context.Context, id string, req RenewBillRequest) (*models.GymBill, error) {
	objectID, err := parseBillID(id)
	if err != nil {
		return nil, err
	}

	price := req.Price.Float64()
	admissionCharges := req.AdmissionCharges.Float64()
	discountAmount := req.DiscountAmount.Float64()
	amountPaid := req.AmountPaid.Float64()
	balance := computeBalance(price, admissionCharges, discountAmount, amountPaid)

	now := time.Now()
	entry := models.RenewalEntry{
		ID:               primitive.NewObjectID(),
		JoiningDate:      req.JoiningDate,
		EndDate:          req.EndDate,
		Package:          req.Package,
		Price:            price,
		AdmissionCharges: admissionCharges,
		DiscountAmount:   discountAmount,
		AmountPaid:       amountPaid,
		Balance:          balance,
		Remarks:          req.Remarks,
		Trainer:          req.Trainer,
		Date:             now,
	}

	// A renewal always reactivates the membership, whatever the prior status.
	fields := bson.M{
		"joiningDate":      req.JoiningDate,
		"endDate":          req.EndDate,
		"package":          req.Package,
		"price":            price,
		"admissionCharges": admissionCharges,
		"discountAmount":   discountAmount,
		"amountPaid":       amountPaid,
		"balance":          balance,
		"remarks":          req.Remarks,
		"appointTrainer":   req.Trainer,
		"status":           models.StatusActive,
		"updatedAt":        now,
	}

	bill, err := s.billRepo.Renew(ctx, objectID, entry, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to renew bill: %w", err)
	}
	return bill, nil
}

func (s *billService) EditRenewalEntry(ctx context.Context, clientID, renewID string, req RenewalEntryUpdate) (int64, int64, error) {
	billID, err := parseBillID(clientID)
	if err != nil {
		return 0, 0, err
	}
	entryID, err := parseBillID(renewID)
	if err != nil {
		return 0, 0, err
	}

	entry := models.RenewalEntry{
		JoiningDate:      req.JoiningDate,
		EndDate:          req.EndDate,
		Package:          req.Package,
		Price:            req.Price.Float64(),
		AdmissionCharges: req.AdmissionCharges.Float64(),
		DiscountAmount:   req.DiscountAmount.Float64(),
		AmountPaid:       req.AmountPaid.Float64(),
		Balance:          req.Balance.Float64(),
		Remarks:          req.Remarks,
		Trainer:          req.Trainer,
		Date:             req.Date,
	}

	matched, modified, err := s.billRepo.ReplaceRenewalEntry(ctx, billID, entryID, entry)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to edit renewal entry: %w", err)
	}
	return matched, modified, nil
}

func (s *billService) DeleteRenewalEntry(ctx context.Context, clientID, renewID string) (*models.GymBill, error) {
	billID, err := parseBillID(clientID)
	if err != nil {
		return nil, err
	}
	entryID, err := parseBillID(renewID)
	if err != nil {
		return nil, err
	}

	bill, err := s.billRepo.PullRenewalEntry(ctx, billID, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to delete renewal entry: %w", err)
	}
	return bill, nil
}

func (s *billService) DeleteBill(ctx context.Context, id string) error {
	objectID, err := parseBillID(id)
	if err != nil {
		return err
	}
	// Followups referencing this bill are left in place; there is no cascade.
	if err := s.billRepo.Delete(ctx, objectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBillNotFound
		}
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return nil
}

func (s *billService) RecordPayment(ctx context.Context, id string, req PaymentRequest) (*models.GymBill, error) {
	objectID, err := parseBillID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := models.PaymentEntry{
		ID:     primitive.NewObjectID(),
		Amount: req.PaymentHistory.Amount.Float64(),
		Mode:   req.PaymentHistory.Mode,
		Note:   req.PaymentHistory.Note,
		Date:   now,
	}

	// amountPaid/balance are stored verbatim from the request here; unlike the
	// create and renew paths, the payment path never recomputes the balance.
	bill, err := s.billRepo.RecordPayment(ctx, objectID, req.AmountPaid.Float64(), req.Balance.Float64(), entry)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if req.FollowUpDate != "" {
		response := req.PaymentHistory.Note
		if response == "" {
			response = "Payment Follow-up"
		}
		followup := &models.Followup{
			Client:       objectID,
			FollowupType: models.FollowupTypePayment,
			ScheduleDate: req.FollowUpDate,
			Response:     response,
			Status:       models.FollowupStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		// The payment update has already succeeded; a followup failure is
		// logged and swallowed, never rolled back.
		if err := s.followupRepo.Create(ctx, followup); err != nil {
			utils.LogError(err, "RecordPayment: followup creation failed after successful payment update")
		}
	}

	return bill, nil
}
