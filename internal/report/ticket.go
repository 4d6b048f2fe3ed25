package report

import (
	"errors"
	"time"
)

// ErrMalformedTicket is returned for a ticket that has an end transition without a timestamp.
var ErrMalformedTicket = errors.New("malformed ticket")

// Transition records when a ticket entered a workflow state.
type Transition struct {
	State     string    `json:"state"`
	EnteredAt time.Time `json:"entered_at"`
}

// IsEmpty reports whether the transition carries no data at all, the way an
// empty mapping in a ticket export means "never reached this state".
func (t Transition) IsEmpty() bool {
	return t.State == "" && t.EnteredAt.IsZero()
}

// Ticket is the narrow view of an analyzed ticket the reporter needs.
// Started and Ended report false when the ticket never reached that class of state.
type Ticket interface {
	IssueKey() string
	Started() (Transition, bool)
	Ended() (Transition, bool)
}

// AsTickets widens a slice of concrete tickets to the reporter's interface.
func AsTickets[T Ticket](in []T) []Ticket {
	out := make([]Ticket, len(in))
	for i, t := range in {
		out[i] = t
	}
	return out
}
