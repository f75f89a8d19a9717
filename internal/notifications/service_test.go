package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
)

type fakeRepo struct {
	rows map[uuid.UUID]*models.Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.Notification{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	row := *n
	f.rows[row.ID] = &row
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeRepo) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, row := range f.rows {
		if row.UserID != userID {
			continue
		}
		if unreadOnly && row.ReadAt != nil {
			continue
		}
		out = append(out, *row)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.UserID == userID && row.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	if row, ok := f.rows[id]; ok && row.ReadAt == nil {
		now := time.Now()
		row.ReadAt = &now
	}
	return nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, row := range f.rows {
		if row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &now
		}
	}
	return nil
}

func principal(id uuid.UUID) access.Principal {
	return access.Principal{UserID: id, Role: enums.UserRoleMember}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestNotifyTxAndList(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	recipient := uuid.New()
	err := svc.NotifyTx(context.Background(), nil, recipient, enums.NotificationTypeMemberJoined, "New member", "Someone joined", nil)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	list, err := svc.List(context.Background(), principal(recipient), false, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Type != enums.NotificationTypeMemberJoined {
		t.Fatalf("unexpected list %+v", list)
	}

	other, err := svc.List(context.Background(), principal(uuid.New()), false, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatal("notifications leaked to another user")
	}
}

func TestNotifyTxRejectsUnknownType(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	err := svc.NotifyTx(context.Background(), nil, uuid.New(), enums.NotificationType("smoke_signal"), "t", "m", nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestMarkReadRecipientOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	recipient := uuid.New()
	if err := svc.NotifyTx(context.Background(), nil, recipient, enums.NotificationTypePollClosed, "Poll closed", "done", nil); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	var id uuid.UUID
	for rowID := range repo.rows {
		id = rowID
	}

	err := svc.MarkRead(context.Background(), principal(uuid.New()), id)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}

	if err := svc.MarkRead(context.Background(), principal(recipient), id); err != nil {
		t.Fatalf("recipient mark read failed: %v", err)
	}
	if repo.rows[id].ReadAt == nil {
		t.Fatal("notification not marked read")
	}
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	recipient := uuid.New()
	for i := 0; i < 3; i++ {
		if err := svc.NotifyTx(context.Background(), nil, recipient, enums.NotificationTypeMemberJoined, "New member", "Someone joined", nil); err != nil {
			t.Fatalf("notify failed: %v", err)
		}
	}

	count, err := svc.UnreadCount(context.Background(), principal(recipient))
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	if err := svc.MarkAllRead(context.Background(), principal(recipient)); err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	count, _ = svc.UnreadCount(context.Background(), principal(recipient))
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}
