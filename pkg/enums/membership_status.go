package enums

import "fmt"

// MembershipStatus captures the lifecycle of a party membership.
type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusConfirmed MembershipStatus = "confirmed"
	MembershipStatusDeclined  MembershipStatus = "declined"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusPending,
	MembershipStatusConfirmed,
	MembershipStatusDeclined,
}

// String implements fmt.Stringer.
func (m MembershipStatus) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known MembershipStatus.
func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// CountsTowardRoster reports whether a membership with this status keeps the
// user on the party roster.
func (m MembershipStatus) CountsTowardRoster() bool {
	return m != MembershipStatusDeclined
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
