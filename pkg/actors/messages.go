package actors

import "time"

// Sweep asks the expiry actor to cancel overdue orders as of Now. A zero Now
// means the time the message is handled.
type Sweep struct {
	Now time.Time
}

type SweepResult struct {
	Cancelled []string
	Failed    int
}
