package enums

import "fmt"

// NotificationType enumerates in-app notification kinds.
type NotificationType string

const (
	NotificationTypePartyInvite   NotificationType = "party_invite"
	NotificationTypeMemberJoined  NotificationType = "member_joined"
	NotificationTypeMemberLeft    NotificationType = "member_left"
	NotificationTypePollCreated   NotificationType = "poll_created"
	NotificationTypePollClosed    NotificationType = "poll_closed"
	NotificationTypeFriendRequest NotificationType = "friend_request"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePartyInvite,
	NotificationTypeMemberJoined,
	NotificationTypeMemberLeft,
	NotificationTypePollCreated,
	NotificationTypePollClosed,
	NotificationTypeFriendRequest,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
