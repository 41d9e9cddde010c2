package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status represents the lifecycle state of a processed-session record.
type Status string

const (
	// DefaultTTL is the default duration that processed-session records are retained.
	DefaultTTL = 72 * time.Hour
	// StatusPending indicates that a webhook delivery has reserved the session but fulfillment has not finished.
	StatusPending Status = "pending"
	// StatusProcessed indicates that fulfillment for the session completed and replays must be ignored.
	StatusProcessed Status = "processed"
)

// ReservationState describes the outcome of attempting to reserve a session for processing.
type ReservationState int

const (
	// ReservationStateNew means the session has not been seen and the caller should process it.
	ReservationStateNew ReservationState = iota
	// ReservationStateProcessed means the session was already fulfilled and the delivery is a replay.
	ReservationStateProcessed
	// ReservationStatePending means another delivery of the same session is currently being processed.
	ReservationStatePending
)

// Reservation is the result of a Reserve call, carrying the stored record when one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record captures the persisted state for a checkout session seen by the webhook.
type Record struct {
	SessionID string
	Status    Status
	OrderRef  string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Store tracks which checkout sessions have already triggered fulfillment.
//
// Reserve performs an atomic check-and-set: at most one concurrent caller
// observes ReservationStateNew for a given session id.
type Store interface {
	Reserve(ctx context.Context, sessionID string, now time.Time, ttl time.Duration) (Reservation, error)
	MarkProcessed(ctx context.Context, sessionID, orderRef string, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, sessionID string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

func recordKey(sessionID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return hex.EncodeToString(sum[:])
}
