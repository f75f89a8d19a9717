package enums

import "fmt"

// PartyStatus tracks where a party is in its planning lifecycle.
type PartyStatus string

const (
	PartyStatusPlanning  PartyStatus = "planning"
	PartyStatusConfirmed PartyStatus = "confirmed"
	PartyStatusCompleted PartyStatus = "completed"
	PartyStatusCancelled PartyStatus = "cancelled"
)

var validPartyStatuses = []PartyStatus{
	PartyStatusPlanning,
	PartyStatusConfirmed,
	PartyStatusCompleted,
	PartyStatusCancelled,
}

// String implements fmt.Stringer.
func (p PartyStatus) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PartyStatus.
func (p PartyStatus) IsValid() bool {
	for _, candidate := range validPartyStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (p PartyStatus) IsTerminal() bool {
	return p == PartyStatusCompleted || p == PartyStatusCancelled
}

// CanTransitionTo validates the planning -> confirmed -> completed chain,
// with cancelled reachable from any non-terminal state.
func (p PartyStatus) CanTransitionTo(next PartyStatus) bool {
	if p.IsTerminal() {
		return false
	}
	switch next {
	case PartyStatusCancelled:
		return true
	case PartyStatusConfirmed:
		return p == PartyStatusPlanning
	case PartyStatusCompleted:
		return p == PartyStatusConfirmed
	default:
		return false
	}
}

// ParsePartyStatus converts raw input into a PartyStatus.
func ParsePartyStatus(value string) (PartyStatus, error) {
	for _, candidate := range validPartyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party status %q", value)
}
