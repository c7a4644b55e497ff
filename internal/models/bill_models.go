package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bill status values. Anything else normalizes to StatusActive.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// NormalizeStatus maps absent or unknown status values to StatusActive.
func NormalizeStatus(status string) string {
	if status == StatusActive || status == StatusInactive {
		return status
	}
	return StatusActive
}

// ProfilePicture holds the uploaded image bytes together with the declared media type.
// Pictures are immutable once attached; a new upload fully replaces the old bytes.
type ProfilePicture struct {
	Data        []byte `bson:"data" json:"-"`
	ContentType string `bson:"contentType" json:"contentType,omitempty"`
}

// PaymentEntry is one record in a bill's append-only payment log.
type PaymentEntry struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Amount float64            `bson:"amount" json:"amount"`
	Mode   string             `bson:"mode,omitempty" json:"mode,omitempty"`
	Note   string             `bson:"note,omitempty" json:"note,omitempty"`
	Date   time.Time          `bson:"date" json:"date"`
}

// RenewalEntry is a full snapshot of membership terms taken at a renewal event,
// not a diff against the previous terms.
type RenewalEntry struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	JoiningDate      string             `bson:"joiningDate,omitempty" json:"joiningDate,omitempty"`
	EndDate          string             `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Package          string             `bson:"package,omitempty" json:"package,omitempty"`
	Price            float64            `bson:"price" json:"price"`
	AdmissionCharges float64            `bson:"admissionCharges" json:"admissionCharges"`
	DiscountAmount   float64            `bson:"discountAmount" json:"discountAmount"`
	AmountPaid       float64            `bson:"amountPaid" json:"amountPaid"`
	Balance          float64            `bson:"balance" json:"balance"`
	Remarks          string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
	Trainer          string             `bson:"trainer,omitempty" json:"trainer,omitempty"`
	Date             time.Time          `bson:"date" json:"date"`
}

// GymBill is one gym member's billing record: current membership terms plus the
// embedded payment and renewal histories.
type GymBill struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MemberID         string             `bson:"memberId" json:"memberId"`
	Client           string             `bson:"client,omitempty" json:"client,omitempty"`
	ContactNumber    string             `bson:"contactNumber,omitempty" json:"contactNumber,omitempty"`
	AlternateContact string             `bson:"alternateContact,omitempty" json:"alternateContact,omitempty"`
	Email            string             `bson:"email,omitempty" json:"email,omitempty"`
	ClientSource     string             `bson:"clientSource,omitempty" json:"clientSource,omitempty"`
	Gender           string             `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth      string             `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Anniversary      string             `bson:"anniversary,omitempty" json:"anniversary,omitempty"`
	Profession       string             `bson:"profession,omitempty" json:"profession,omitempty"`
	TaxID            string             `bson:"taxId,omitempty" json:"taxId,omitempty"`
	WorkoutHours     string             `bson:"workoutHours,omitempty" json:"workoutHours,omitempty"`
	AreaAddress      string             `bson:"areaAddress,omitempty" json:"areaAddress,omitempty"`
	Remarks          string             `bson:"remarks,omitempty" json:"remarks,omitempty"`

	ProfilePicture *ProfilePicture `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`

	Package     string `bson:"package,omitempty" json:"package,omitempty"`
	JoiningDate string `bson:"joiningDate,omitempty" json:"joiningDate,omitempty"`
	EndDate     string `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Sessions    int    `bson:"sessions,omitempty" json:"sessions,omitempty"`

	Price            float64 `bson:"price" json:"price"`
	DiscountAmount   float64 `bson:"discountAmount" json:"discountAmount"`
	AdmissionCharges float64 `bson:"admissionCharges" json:"admissionCharges"`
	Tax              float64 `bson:"tax" json:"tax"`
	AmountPayable    float64 `bson:"amountPayable" json:"amountPayable"`
	AmountPaid       float64 `bson:"amountPaid" json:"amountPaid"`
	Balance          float64 `bson:"balance" json:"balance"`
	Amount           float64 `bson:"amount" json:"amount"`

	FollowupDate string `bson:"followupDate,omitempty" json:"followupDate,omitempty"`
	Status       string `bson:"status" json:"status"`

	PaymentMethodDetail string `bson:"paymentMethodDetail,omitempty" json:"paymentMethodDetail,omitempty"`
	AppointTrainer      string `bson:"appointTrainer,omitempty" json:"appointTrainer,omitempty"`
	ClientRep           string `bson:"clientRep,omitempty" json:"clientRep,omitempty"`

	PaymentHistory []PaymentEntry `bson:"paymentHistory" json:"paymentHistory"`
	RenewalHistory []RenewalEntry `bson:"renewalHistory" json:"renewalHistory"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TotalPaidIncludingRenewals sums the bill's current amountPaid with the amountPaid
// of every renewal snapshot. Derived at read time, never stored.
func (b *GymBill) TotalPaidIncludingRenewals() float64 {
	total := b.AmountPaid
	for _, entry := range b.RenewalHistory {
		total += entry.AmountPaid
	}
	return total
}

// BillWithTotal is the list-endpoint projection of a bill: the stored record plus
// the derived paid-to-date total.
type BillWithTotal struct {
	GymBill
	TotalPaidIncludingRenewals float64 `bson:"-" json:"totalPaidIncludingRenewals"`
}
