package friends

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/outbox"
)

type fakeRepo struct {
	rows map[uuid.UUID]*models.Friend
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.Friend{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, friend *models.Friend) error {
	if friend.ID == uuid.Nil {
		friend.ID = uuid.New()
	}
	row := *friend
	f.rows[row.ID] = &row
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Friend, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeRepo) GetPair(ctx context.Context, a, b uuid.UUID) (*models.Friend, error) {
	for _, row := range f.rows {
		if (row.UserID == a && row.FriendUserID == b) || (row.UserID == b && row.FriendUserID == a) {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListForUser(ctx context.Context, userID uuid.UUID, status *enums.FriendStatus) ([]models.Friend, error) {
	var out []models.Friend
	for _, row := range f.rows {
		if row.UserID != userID && row.FriendUserID != userID {
			continue
		}
		if status != nil && row.Status != *status {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.FriendStatus) error {
	row, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Status = status
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
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

func principal(id uuid.UUID) access.Principal {
	return access.Principal{UserID: id, Role: enums.UserRoleMember}
}

func newTestService(t *testing.T, repo Repository, events *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, events, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestRequestCreatesPendingEdge(t *testing.T) {
	repo := newFakeRepo()
	events := &stubOutbox{}
	svc := newTestService(t, repo, events)

	requester, recipient := uuid.New(), uuid.New()
	dto, err := svc.Request(context.Background(), principal(requester), recipient)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if dto.Status != enums.FriendStatusPending {
		t.Fatalf("expected pending, got %s", dto.Status)
	}
	if len(events.events) != 1 || events.events[0].EventType != enums.EventFriendRequested {
		t.Fatalf("expected friend_requested event, got %+v", events.events)
	}
}

func TestRequestToSelfRejected(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &stubOutbox{})

	self := uuid.New()
	_, err := svc.Request(context.Background(), principal(self), self)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestRequestDuplicatePairConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	a, b := uuid.New(), uuid.New()
	if _, err := svc.Request(context.Background(), principal(a), b); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// reverse direction still counts as the same pair
	_, err := svc.Request(context.Background(), principal(b), a)
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestAcceptByRecipient(t *testing.T) {
	repo := newFakeRepo()
	events := &stubOutbox{}
	svc := newTestService(t, repo, events)

	a, b := uuid.New(), uuid.New()
	dto, err := svc.Request(context.Background(), principal(a), b)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	accepted, err := svc.Accept(context.Background(), principal(b), dto.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != enums.FriendStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if events.events[len(events.events)-1].EventType != enums.EventFriendAccepted {
		t.Fatal("expected friend_accepted event")
	}
}

func TestAcceptByRequesterForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	a, b := uuid.New(), uuid.New()
	dto, err := svc.Request(context.Background(), principal(a), b)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	_, err = svc.Accept(context.Background(), principal(a), dto.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestAcceptTwiceStateConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	a, b := uuid.New(), uuid.New()
	dto, _ := svc.Request(context.Background(), principal(a), b)
	if _, err := svc.Accept(context.Background(), principal(b), dto.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := svc.Accept(context.Background(), principal(b), dto.ID)
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestRemoveByStrangerForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	a, b := uuid.New(), uuid.New()
	dto, _ := svc.Request(context.Background(), principal(a), b)

	err := svc.Remove(context.Background(), principal(uuid.New()), dto.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}

	if err := svc.Remove(context.Background(), principal(a), dto.ID); err != nil {
		t.Fatalf("participant remove failed: %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	if _, err := svc.Request(context.Background(), principal(a), b); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	acceptedDTO, _ := svc.Request(context.Background(), principal(a), c)
	if _, err := svc.Accept(context.Background(), principal(c), acceptedDTO.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	accepted := enums.FriendStatusAccepted
	list, err := svc.List(context.Background(), principal(a), &accepted)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != acceptedDTO.ID {
		t.Fatalf("expected only the accepted edge, got %+v", list)
	}
}
