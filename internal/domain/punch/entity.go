package punch

import (
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/geo"
)

type SessionStatus string

const (
	StatusPending  SessionStatus = "PENDING"
	StatusVerified SessionStatus = "VERIFIED"
	StatusRejected SessionStatus = "REJECTED"
)

// Session is one attendance session. Created by punch-in, mutated only
// by punch-out (EndedAt) or by an approval action on the backend
// (Status). At most one session per user may be active at a time; the
// API enforces it, the controller defends locally as well.
type Session struct {
	ID              string        `json:"id"`
	FirmID          string        `json:"firm_id"`
	FirmName        string        `json:"firm_name"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at"`
	StartCoordinate geo.Coordinate `json:"start_coordinate"`
	PhotoRef        string        `json:"photo_ref"`
	PhotoURL        string        `json:"photo_url,omitempty"`
	Status          SessionStatus `json:"status"`
}

// Active reports whether the session is still open.
func (s Session) Active() bool {
	return s.EndedAt == nil
}

// State is the controller-side session state.
type State string

const (
	StateNotPunched State = "NOT_PUNCHED"
	StatePunchedIn  State = "PUNCHED_IN"
)

// Status is the authoritative active-session answer from the API.
type Status struct {
	IsActive bool
	Active   *Session
}
