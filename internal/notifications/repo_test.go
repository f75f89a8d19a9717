package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, nt enums.NotificationType, created time.Time, readAt *time.Time) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      nt,
		Title:     "Test Notification",
		Message:   "something happened",
		ReadAt:    readAt,
		CreatedAt: created,
	}
	require.NoError(t, db.Create(notification).Error)
	return notification
}

func TestRepositoryListForUser_ordersAndLimits(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	createNotification(t, db, userID, enums.NotificationTypeMemberJoined, now.Add(-2*time.Hour), nil)
	newest := createNotification(t, db, userID, enums.NotificationTypePollCreated, now, nil)
	createNotification(t, db, userID, enums.NotificationTypePollClosed, now.Add(-time.Hour), nil)
	createNotification(t, db, uuid.New(), enums.NotificationTypeFriendRequest, now, nil)

	list, err := repo.ListForUser(context.Background(), userID, false, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newest.ID, list[0].ID)
	assert.Equal(t, enums.NotificationTypePollClosed, list[1].Type)
}

func TestRepositoryListForUser_unreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	readAt := now.Add(-time.Minute)
	createNotification(t, db, userID, enums.NotificationTypeMemberJoined, now.Add(-time.Hour), &readAt)
	unread := createNotification(t, db, userID, enums.NotificationTypePollCreated, now, nil)

	list, err := repo.ListForUser(context.Background(), userID, true, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, unread.ID, list[0].ID)

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	notification := createNotification(t, db, userID, enums.NotificationTypeFriendRequest, now, nil)

	require.NoError(t, repo.MarkRead(context.Background(), notification.ID))

	got, err := repo.GetByID(context.Background(), notification.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)

	// marking again leaves the original read timestamp intact
	first := *got.ReadAt
	require.NoError(t, repo.MarkRead(context.Background(), notification.ID))
	again, err := repo.GetByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Unix(), again.ReadAt.Unix())
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()
	createNotification(t, db, userID, enums.NotificationTypeMemberJoined, now.Add(-time.Hour), nil)
	createNotification(t, db, userID, enums.NotificationTypePollCreated, now, nil)
	untouched := createNotification(t, db, other, enums.NotificationTypePollCreated, now, nil)

	require.NoError(t, repo.MarkAllRead(context.Background(), userID))

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	got, err := repo.GetByID(context.Background(), untouched.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReadAt)
}
