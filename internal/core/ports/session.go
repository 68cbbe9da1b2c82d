package ports

import (
	"context"
	"time"
)

// Chat steps stored in the session.
const (
	StepAwaitingDrawing = "awaiting_drawing"
	StepChoosingTime    = "choosing_time"
)

// SessionStore keeps short-lived per-chat conversation state.
type SessionStore interface {
	// Step returns the current step, or "" when none is set.
	Step(ctx context.Context, telegramID int64) (string, error)
	SetStep(ctx context.Context, telegramID int64, step string) error
	Clear(ctx context.Context, telegramID int64) error
}

// Locker is a best-effort distributed lock used to serialize short
// check-then-act sequences per key.
type Locker interface {
	// Acquire returns true when the lock was taken. The lock expires
	// after ttl even if Release is never called.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
