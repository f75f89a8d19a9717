package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/enums"
)

// PartyMember is the relational membership record for one (party, user)
// pair. A declined row is logically absent from the roster but is kept so a
// later re-join is an explicit status transition rather than a re-insert.
type PartyMember struct {
	ID           uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PartyID      uuid.UUID              `gorm:"column:party_id;type:uuid;not null;uniqueIndex:idx_party_members_party_user"`
	UserID       uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_party_members_party_user"`
	Status       enums.MembershipStatus `gorm:"column:status;type:membership_status;not null;default:'confirmed'"`
	LocationLat  *float64               `gorm:"column:location_lat"`
	LocationLng  *float64               `gorm:"column:location_lng"`
	LocationName *string                `gorm:"column:location_name"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
