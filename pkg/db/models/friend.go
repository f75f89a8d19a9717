package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/enums"
)

// Friend is a directed friend edge; the pair is unique regardless of who
// initiated it.
type Friend struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_friends_pair"`
	FriendUserID uuid.UUID          `gorm:"column:friend_user_id;type:uuid;not null;uniqueIndex:idx_friends_pair"`
	Status       enums.FriendStatus `gorm:"column:status;type:friend_status;not null;default:'pending'"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
