package types

import "time"

// CancelResponse is returned from order cancellation. A cancellation attempt
// against an already-resolved order succeeds with an informational message.
type CancelResponse struct {
	Message string  `json:"message"`
	OrderID string  `json:"order_id"`
	Refund  float64 `json:"refund"`
}

// SweepResult summarises one pass of the pending-order sweep.
type SweepResult struct {
	Scanned   int       `json:"scanned"`
	Settled   int       `json:"settled"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}
