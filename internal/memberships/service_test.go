package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	dbtypes "github.com/00goop/lets-link/pkg/db/types"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/outbox"
)

type memberKey struct {
	party uuid.UUID
	user  uuid.UUID
}

type fakeRepo struct {
	party   *models.Party
	members map[memberKey]*models.PartyMember
	byID    map[uuid.UUID]*models.PartyMember
}

func newFakeRepo(party *models.Party) *fakeRepo {
	return &fakeRepo{
		party:   party,
		members: map[memberKey]*models.PartyMember{},
		byID:    map[uuid.UUID]*models.PartyMember{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	if f.party == nil || f.party.ID != partyID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.party, nil
}

func (f *fakeRepo) GetPartyForUpdate(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	return f.GetParty(ctx, partyID)
}

func (f *fakeRepo) GetMember(ctx context.Context, partyID, userID uuid.UUID) (*models.PartyMember, error) {
	return f.members[memberKey{partyID, userID}], nil
}

func (f *fakeRepo) GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.PartyMember, error) {
	m, ok := f.byID[memberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeRepo) UpsertMember(ctx context.Context, member *models.PartyMember) error {
	key := memberKey{member.PartyID, member.UserID}
	if existing, ok := f.members[key]; ok {
		existing.Status = member.Status
		if member.LocationLat != nil {
			existing.LocationLat = member.LocationLat
		}
		if member.LocationLng != nil {
			existing.LocationLng = member.LocationLng
		}
		if member.LocationName != nil {
			existing.LocationName = member.LocationName
		}
		return nil
	}
	row := *member
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.members[key] = &row
	f.byID[row.ID] = &row
	return nil
}

func (f *fakeRepo) ListMembers(ctx context.Context, partyID uuid.UUID) ([]models.PartyMember, error) {
	var out []models.PartyMember
	for key, m := range f.members {
		if key.party == partyID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveMemberIDs(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for key, m := range f.members {
		if key.party == partyID && m.Status != enums.MembershipStatusDeclined {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateRoster(ctx context.Context, partyID uuid.UUID, roster dbtypes.UUIDArray) error {
	f.party.MemberIDs = roster
	return nil
}

func (f *fakeRepo) UpdateMemberLocation(ctx context.Context, memberID uuid.UUID, lat, lng *float64, label *string) error {
	m, ok := f.byID[memberID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if lat != nil {
		m.LocationLat = lat
	}
	if lng != nil {
		m.LocationLng = lng
	}
	if label != nil {
		m.LocationName = label
	}
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func planningParty(hostID uuid.UUID, maxSize *int) *models.Party {
	return &models.Party{
		ID:        uuid.New(),
		Title:     "Trip",
		HostID:    hostID,
		Status:    enums.PartyStatusPlanning,
		MaxSize:   maxSize,
		MemberIDs: dbtypes.UUIDArray{hostID},
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{}, nil, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func principal(id uuid.UUID) access.Principal {
	return access.Principal{UserID: id, Role: enums.UserRoleMember}
}

func TestJoinAddsToRosterAndRow(t *testing.T) {
	host := uuid.New()
	joiner := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	svc := newTestService(t, repo)

	view, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if !containsID(view.UserIDs, joiner) {
		t.Fatal("roster missing joiner")
	}
	if !containsID(view.UserIDs, host) {
		t.Fatal("roster missing host")
	}
	member, _ := repo.GetMember(context.Background(), repo.party.ID, joiner)
	if member == nil || member.Status != enums.MembershipStatusConfirmed {
		t.Fatalf("expected confirmed membership row, got %+v", member)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	host := uuid.New()
	joiner := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	svc := newTestService(t, repo)

	for i := 0; i < 3; i++ {
		if _, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{}); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	roster, err := svc.Roster(context.Background(), repo.party.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if got := countID(roster, joiner); got != 1 {
		t.Fatalf("joiner appears %d times in roster", got)
	}
}

func TestJoinCapacityExceeded(t *testing.T) {
	host := uuid.New()
	first := uuid.New()
	maxSize := 3
	repo := newFakeRepo(planningParty(host, &maxSize))
	svc := newTestService(t, repo)

	if _, err := svc.Join(context.Background(), principal(first), repo.party.ID, JoinParams{}); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	// host + 1 member fills max_size−1 slots
	_, err := svc.Join(context.Background(), principal(uuid.New()), repo.party.ID, JoinParams{})
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestJoinNonPlanningPartyRejected(t *testing.T) {
	host := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	repo.party.Status = enums.PartyStatusConfirmed
	svc := newTestService(t, repo)

	_, err := svc.Join(context.Background(), principal(uuid.New()), repo.party.ID, JoinParams{})
	if err == nil {
		t.Fatal("expected error joining confirmed party")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestLeaveRemovesFromRosterKeepsRow(t *testing.T) {
	host := uuid.New()
	joiner := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	svc := newTestService(t, repo)

	if _, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	member, _ := repo.GetMember(context.Background(), repo.party.ID, joiner)

	if err := svc.Leave(context.Background(), principal(joiner), member.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	roster, err := svc.Roster(context.Background(), repo.party.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if containsID(roster, joiner) {
		t.Fatal("roster still contains departed member")
	}
	row, _ := repo.GetMember(context.Background(), repo.party.ID, joiner)
	if row == nil || row.Status != enums.MembershipStatusDeclined {
		t.Fatalf("expected declined row retained, got %+v", row)
	}
}

func TestRejoinAfterDeclineIsSilentReapply(t *testing.T) {
	host := uuid.New()
	joiner := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	svc := newTestService(t, repo)

	if _, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	member, _ := repo.GetMember(context.Background(), repo.party.ID, joiner)
	if err := svc.Leave(context.Background(), principal(joiner), member.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	view, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{})
	if err != nil {
		t.Fatalf("re-join failed: %v", err)
	}
	if !containsID(view.UserIDs, joiner) {
		t.Fatal("re-joined user missing from roster")
	}
	if got := len(repo.byID); got != 1 {
		t.Fatalf("expected a single membership row, got %d", got)
	}
}

func TestRosterReconcilesStaleDenormalizedField(t *testing.T) {
	host := uuid.New()
	rowOnly := uuid.New()
	cacheOnly := uuid.New()

	repo := newFakeRepo(planningParty(host, nil))
	// simulate drift: one member only in rows, one only in the cached field
	repo.party.MemberIDs = dbtypes.UUIDArray{host, cacheOnly}
	_ = repo.UpsertMember(context.Background(), &models.PartyMember{
		PartyID: repo.party.ID,
		UserID:  rowOnly,
		Status:  enums.MembershipStatusConfirmed,
	})

	svc := newTestService(t, repo)
	roster, err := svc.Roster(context.Background(), repo.party.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	for _, want := range []uuid.UUID{host, rowOnly, cacheOnly} {
		if !containsID(roster, want) {
			t.Errorf("roster missing %s", want)
		}
	}
}

func TestLeaveByStrangerForbidden(t *testing.T) {
	host := uuid.New()
	joiner := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	svc := newTestService(t, repo)

	if _, err := svc.Join(context.Background(), principal(joiner), repo.party.ID, JoinParams{}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	member, _ := repo.GetMember(context.Background(), repo.party.ID, joiner)

	err := svc.Leave(context.Background(), principal(uuid.New()), member.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestJoinEmitsOutboxEvent(t *testing.T) {
	host := uuid.New()
	repo := newFakeRepo(planningParty(host, nil))
	events := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, events, nil, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	if _, err := svc.Join(context.Background(), principal(uuid.New()), repo.party.ID, JoinParams{}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	if events.events[0].EventType != enums.EventMemberJoined {
		t.Fatalf("unexpected event type %s", events.events[0].EventType)
	}
}

func containsID(ids []uuid.UUID, want uuid.UUID) bool {
	return countID(ids, want) > 0
}

func countID(ids []uuid.UUID, want uuid.UUID) int {
	n := 0
	for _, id := range ids {
		if id == want {
			n++
		}
	}
	return n
}
