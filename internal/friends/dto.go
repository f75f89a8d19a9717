package friends

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// FriendDTO is the transport shape for a friend edge.
type FriendDTO struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	FriendUserID uuid.UUID          `json:"friend_user_id"`
	Status       enums.FriendStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func friendToDTO(f *models.Friend) FriendDTO {
	return FriendDTO{
		ID:           f.ID,
		UserID:       f.UserID,
		FriendUserID: f.FriendUserID,
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}
