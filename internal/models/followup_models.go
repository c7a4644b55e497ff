package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Followup statuses.
const (
	FollowupStatusPending = "Pending"
	FollowupStatusDone    = "Done"
)

// FollowupTypePayment is the type assigned to followups created by the
// payment-recording path.
const FollowupTypePayment = "Payment"

// Followup is a scheduled contact task linked to a bill. Followups reference the
// bill by id only; deleting a bill does not cascade to its followups.
type Followup struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Client       primitive.ObjectID `bson:"client" json:"client"`
	FollowupType string             `bson:"followupType" json:"followupType"`
	ScheduleDate string             `bson:"scheduleDate" json:"scheduleDate"`
	Response     string             `bson:"response,omitempty" json:"response,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
