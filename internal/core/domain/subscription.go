package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the payment state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionCompleted SubscriptionStatus = "completed"
	SubscriptionFailed    SubscriptionStatus = "failed"
)

// Payment providers a subscription can be purchased through.
const (
	ProviderKaspi    = "kaspi"
	ProviderYukassa  = "yukassa"
	ProviderProdamus = "prodamus"
	ProviderManual   = "manual" // granted by an admin, no money moved
)

// KnownProvider reports whether name is one of the external payment providers.
func KnownProvider(name string) bool {
	switch name {
	case ProviderKaspi, ProviderYukassa, ProviderProdamus:
		return true
	}
	return false
}

// Subscription is one purchase (or grant) of course access.
// Price and currency are snapshotted at creation time.
type Subscription struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    SubscriptionStatus
	Price     int
	Currency  string
	Provider  string
	PaymentID *string
	StartDate *time.Time
	EndDate   *time.Time
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActiveAt reports whether the subscription grants access at the given instant.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil || s.Status != SubscriptionCompleted || s.DeletedAt != nil {
		return false
	}
	return s.EndDate != nil && !s.EndDate.Before(now)
}
