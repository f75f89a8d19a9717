package enums

import "fmt"

// PollStatus is a one-way latch: open until closed, never reopened.
type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

var validPollStatuses = []PollStatus{
	PollStatusOpen,
	PollStatusClosed,
}

// String implements fmt.Stringer.
func (p PollStatus) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PollStatus.
func (p PollStatus) IsValid() bool {
	for _, candidate := range validPollStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePollStatus converts raw input into a PollStatus.
func ParsePollStatus(value string) (PollStatus, error) {
	for _, candidate := range validPollStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid poll status %q", value)
}
