package access

import (
	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
)

// Kind names the resource families the policy knows how to gate.
type Kind string

const (
	KindParty        Kind = "party"
	KindMembership   Kind = "membership"
	KindPoll         Kind = "poll"
	KindVote         Kind = "vote"
	KindPhoto        Kind = "photo"
	KindNotification Kind = "notification"
)

// Principal identifies the acting user for a single decision.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Resource is a snapshot of everything a decision needs. Roster must come
// from a reconciled read, never the raw denormalized field.
type Resource struct {
	Kind        Kind
	PartyID     uuid.UUID
	HostID      uuid.UUID
	CreatorID   uuid.UUID
	OwnerID     uuid.UUID
	PartyStatus enums.PartyStatus
	Roster      []uuid.UUID
}

// Decision carries the verdict and a short reason for logs and errors.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanRead evaluates the read column of the rule table.
func CanRead(p Principal, r Resource) Decision {
	if p.Role == enums.UserRoleAdmin {
		return allow("admin")
	}

	switch r.Kind {
	case KindParty:
		if p.UserID == r.HostID {
			return allow("host")
		}
		if inRoster(p.UserID, r.Roster) {
			return allow("roster member")
		}
		if r.PartyStatus == enums.PartyStatusPlanning {
			return allow("party in planning")
		}
		return deny("not a member of this party")

	case KindMembership:
		if p.UserID == r.OwnerID {
			return allow("subject user")
		}
		if p.UserID == r.HostID {
			return allow("party host")
		}
		return deny("membership belongs to another user")

	case KindPoll:
		if p.UserID == r.CreatorID {
			return allow("poll creator")
		}
		if p.UserID == r.HostID {
			return allow("party host")
		}
		if inRoster(p.UserID, r.Roster) {
			return allow("roster member")
		}
		return deny("not a member of this party")

	case KindVote:
		if p.UserID == r.OwnerID {
			return allow("voter")
		}
		if p.UserID == r.CreatorID {
			return allow("poll creator")
		}
		if p.UserID == r.HostID {
			return allow("party host")
		}
		return deny("vote belongs to another user")

	case KindPhoto:
		if p.UserID == r.HostID {
			return allow("party host")
		}
		if inRoster(p.UserID, r.Roster) {
			return allow("roster member")
		}
		return deny("not a member of this party")

	case KindNotification:
		if p.UserID == r.OwnerID {
			return allow("recipient")
		}
		return deny("notification belongs to another user")
	}

	return deny("unknown resource kind")
}

// CanWrite evaluates the write column of the rule table. For polls this is
// the create capability; closing has its own check.
func CanWrite(p Principal, r Resource) Decision {
	if p.Role == enums.UserRoleAdmin {
		return allow("admin")
	}

	switch r.Kind {
	case KindParty:
		if p.UserID == r.HostID {
			return allow("host")
		}
		return deny("only the host may modify a party")

	case KindMembership:
		if p.UserID == r.OwnerID {
			return allow("subject user")
		}
		if p.UserID == r.HostID {
			return allow("party host")
		}
		return deny("membership belongs to another user")

	case KindPoll:
		if p.UserID == r.CreatorID {
			return allow("poll creator")
		}
		if p.UserID == r.HostID {
			return allow("party host")
		}
		if inRoster(p.UserID, r.Roster) {
			return allow("roster member")
		}
		return deny("not a member of this party")

	case KindVote:
		if p.UserID == r.OwnerID {
			return allow("voter")
		}
		return deny("only the voter may write a vote")

	case KindPhoto:
		if p.UserID == r.HostID {
			return allow("party host")
		}
		if inRoster(p.UserID, r.Roster) {
			return allow("roster member")
		}
		return deny("not a member of this party")

	case KindNotification:
		if p.UserID == r.OwnerID {
			return allow("recipient")
		}
		return deny("notification belongs to another user")
	}

	return deny("unknown resource kind")
}

// CanClosePoll restricts the open→closed latch to the host or the creator.
func CanClosePoll(p Principal, r Resource) Decision {
	if p.Role == enums.UserRoleAdmin {
		return allow("admin")
	}
	if p.UserID == r.CreatorID {
		return allow("poll creator")
	}
	if p.UserID == r.HostID {
		return allow("party host")
	}
	return deny("only the host or creator may close a poll")
}

// Require converts a denial into the forbidden error handlers surface.
func Require(d Decision) error {
	if d.Allowed {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, d.Reason)
}

func inRoster(userID uuid.UUID, roster []uuid.UUID) bool {
	for _, id := range roster {
		if id == userID {
			return true
		}
	}
	return false
}
