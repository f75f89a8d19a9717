package enums

import "fmt"

// FriendStatus tracks a friend edge between two users.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

var validFriendStatuses = []FriendStatus{
	FriendStatusPending,
	FriendStatusAccepted,
}

// String implements fmt.Stringer.
func (f FriendStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FriendStatus.
func (f FriendStatus) IsValid() bool {
	for _, candidate := range validFriendStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFriendStatus converts raw input into a FriendStatus.
func ParseFriendStatus(value string) (FriendStatus, error) {
	for _, candidate := range validFriendStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid friend status %q", value)
}
