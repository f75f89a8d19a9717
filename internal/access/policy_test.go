package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
)

func TestPartyRules(t *testing.T) {
	host := uuid.New()
	member := uuid.New()
	outsider := uuid.New()

	base := Resource{
		Kind:        KindParty,
		PartyID:     uuid.New(),
		HostID:      host,
		PartyStatus: enums.PartyStatusConfirmed,
		Roster:      []uuid.UUID{host, member},
	}

	cases := []struct {
		name      string
		principal Principal
		resource  Resource
		read      bool
		write     bool
	}{
		{"host reads and writes", Principal{UserID: host, Role: enums.UserRoleMember}, base, true, true},
		{"roster member reads only", Principal{UserID: member, Role: enums.UserRoleMember}, base, true, false},
		{"outsider denied on confirmed party", Principal{UserID: outsider, Role: enums.UserRoleMember}, base, false, false},
		{"outsider reads planning party", Principal{UserID: outsider, Role: enums.UserRoleMember}, withStatus(base, enums.PartyStatusPlanning), true, false},
		{"admin bypasses everything", Principal{UserID: outsider, Role: enums.UserRoleAdmin}, base, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanRead(tc.principal, tc.resource).Allowed; got != tc.read {
				t.Errorf("CanRead = %v, want %v", got, tc.read)
			}
			if got := CanWrite(tc.principal, tc.resource).Allowed; got != tc.write {
				t.Errorf("CanWrite = %v, want %v", got, tc.write)
			}
		})
	}
}

func TestMembershipRules(t *testing.T) {
	host := uuid.New()
	subject := uuid.New()
	other := uuid.New()

	resource := Resource{
		Kind:    KindMembership,
		PartyID: uuid.New(),
		HostID:  host,
		OwnerID: subject,
	}

	if !CanWrite(Principal{UserID: subject}, resource).Allowed {
		t.Error("subject should write own membership")
	}
	if !CanWrite(Principal{UserID: host}, resource).Allowed {
		t.Error("host should write memberships in their party")
	}
	if CanRead(Principal{UserID: other}, resource).Allowed {
		t.Error("third parties should not read memberships")
	}
}

func TestPollAndVoteRules(t *testing.T) {
	host := uuid.New()
	creator := uuid.New()
	member := uuid.New()
	voter := uuid.New()
	outsider := uuid.New()

	poll := Resource{
		Kind:      KindPoll,
		PartyID:   uuid.New(),
		HostID:    host,
		CreatorID: creator,
		Roster:    []uuid.UUID{host, creator, member, voter},
	}

	for _, id := range []uuid.UUID{host, creator, member} {
		if !CanWrite(Principal{UserID: id}, poll).Allowed {
			t.Errorf("user %s should be able to create polls", id)
		}
	}
	if CanWrite(Principal{UserID: outsider}, poll).Allowed {
		t.Error("outsider should not create polls")
	}

	// close is narrower than create
	if CanClosePoll(Principal{UserID: member}, poll).Allowed {
		t.Error("plain member should not close polls")
	}
	if !CanClosePoll(Principal{UserID: creator}, poll).Allowed {
		t.Error("creator should close own poll")
	}
	if !CanClosePoll(Principal{UserID: host}, poll).Allowed {
		t.Error("host should close any party poll")
	}

	vote := Resource{
		Kind:      KindVote,
		PartyID:   poll.PartyID,
		HostID:    host,
		CreatorID: creator,
		OwnerID:   voter,
		Roster:    poll.Roster,
	}

	if !CanWrite(Principal{UserID: voter}, vote).Allowed {
		t.Error("voter should write own vote")
	}
	if CanWrite(Principal{UserID: host}, vote).Allowed {
		t.Error("host should not write someone else's vote")
	}
	for _, id := range []uuid.UUID{voter, creator, host} {
		if !CanRead(Principal{UserID: id}, vote).Allowed {
			t.Errorf("user %s should read the vote", id)
		}
	}
	if CanRead(Principal{UserID: member}, vote).Allowed {
		t.Error("uninvolved member should not read the vote")
	}
}

func TestNotificationScopedToRecipient(t *testing.T) {
	recipient := uuid.New()
	resource := Resource{Kind: KindNotification, OwnerID: recipient}

	if !CanRead(Principal{UserID: recipient}, resource).Allowed {
		t.Error("recipient should read own notification")
	}
	if CanRead(Principal{UserID: uuid.New()}, resource).Allowed {
		t.Error("other users should not read the notification")
	}
}

func TestRequire(t *testing.T) {
	if err := Require(Decision{Allowed: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Require(Decision{Allowed: false, Reason: "not a member of this party"})
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func withStatus(r Resource, status enums.PartyStatus) Resource {
	r.PartyStatus = status
	return r
}
