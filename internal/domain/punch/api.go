package punch

import "context"

// API is the remote punch endpoint contract. The production
// implementation lives in internal/client; the dev stub serves the
// same shapes.
type API interface {
	// SubmitPunchIn creates an attendance session. Called only after
	// the controller has admitted the request locally.
	SubmitPunchIn(ctx context.Context, payload PunchInPayload) (Session, error)

	// SubmitPunchOut closes the session.
	SubmitPunchOut(ctx context.Context, sessionID string) error

	// ActiveStatus asks whether the user has an open session.
	ActiveStatus(ctx context.Context) (Status, error)
}

// PunchInPayload is the wire payload for SubmitPunchIn. Distance is
// the formatted string kept for audit display, not used for any
// server-side decision the client knows about.
type PunchInPayload struct {
	CustomerCode string  `json:"customer_code"`
	CustomerName string  `json:"customer_name"`
	Image        string  `json:"image"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Distance     string  `json:"distance"`
}
