package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateParty      OutboxAggregateType = "party"
	AggregateMembership OutboxAggregateType = "membership"
	AggregatePoll       OutboxAggregateType = "poll"
	AggregatePhoto      OutboxAggregateType = "photo"
	AggregateFriend     OutboxAggregateType = "friend"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateParty,
	AggregateMembership,
	AggregatePoll,
	AggregatePhoto,
	AggregateFriend,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPartyCreated       OutboxEventType = "party_created"
	EventPartyStatusChanged OutboxEventType = "party_status_changed"
	EventMemberJoined       OutboxEventType = "member_joined"
	EventMemberLeft         OutboxEventType = "member_left"
	EventPollCreated        OutboxEventType = "poll_created"
	EventPollClosed         OutboxEventType = "poll_closed"
	EventVoteCast           OutboxEventType = "vote_cast"
	EventPhotoUploaded      OutboxEventType = "photo_uploaded"
	EventFriendRequested    OutboxEventType = "friend_requested"
	EventFriendAccepted     OutboxEventType = "friend_accepted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPartyCreated,
	EventPartyStatusChanged,
	EventMemberJoined,
	EventMemberLeft,
	EventPollCreated,
	EventPollClosed,
	EventVoteCast,
	EventPhotoUploaded,
	EventFriendRequested,
	EventFriendAccepted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
