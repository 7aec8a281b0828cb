package transcript

import (
	"context"
	"time"
)

// TurnRecord is one committed conversation turn in the write-through log.
// The session registry stays authoritative for the live conversation; this
// log only mirrors what was committed.
type TurnRecord struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves committed turns.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	History(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error)
	Close() error
}
