package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentRequestStatus is the state of a manually confirmed payment claim.
// pending is the only non-terminal state.
type PaymentRequestStatus string

const (
	PaymentRequestPending   PaymentRequestStatus = "pending"
	PaymentRequestConfirmed PaymentRequestStatus = "confirmed"
	PaymentRequestRejected  PaymentRequestStatus = "rejected"
	PaymentRequestCancelled PaymentRequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from the status.
func (s PaymentRequestStatus) Terminal() bool {
	return s != PaymentRequestPending
}

// PaymentRequest records a user's claim that they paid through one of the
// configured payment methods. Method name, URL, price and currency are
// snapshots taken when the request was created, so later method edits do
// not rewrite history.
type PaymentRequest struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	PaymentMethodID uuid.UUID
	MethodName      string
	PaymentURL      string
	Price           int
	Currency        string
	Status          PaymentRequestStatus
	AdminNotified   bool
	ConfirmedBy     *string
	ConfirmedAt     *time.Time
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentMethod is an admin-managed way to pay, rendered as a button
// in the bot. Price and currency are optional overrides; when nil the
// global settings (and then the config defaults) apply.
type PaymentMethod struct {
	ID         uuid.UUID
	Name       string
	PaymentURL string
	ButtonText string
	Price      *int
	Currency   *string
	IsActive   bool
	SortOrder  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
