package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dbtypes "github.com/00goop/lets-link/pkg/db/types"
	"github.com/00goop/lets-link/pkg/enums"
)

// Party is the planning unit a group of users converges on. MemberIDs is a
// denormalized roster cache; the party_members rows are ground truth and
// every read path reconciles the two.
type Party struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string              `gorm:"column:title;not null"`
	Description     *string             `gorm:"column:description"`
	Category        enums.PartyCategory `gorm:"column:category;type:party_category;not null"`
	HostID          uuid.UUID           `gorm:"column:host_id;type:uuid;not null"`
	JoinCode        string              `gorm:"column:join_code;not null;uniqueIndex"`
	MaxSize         *int                `gorm:"column:max_size"`
	Status          enums.PartyStatus   `gorm:"column:status;type:party_status;not null;default:'planning'"`
	ScheduledDate   *time.Time          `gorm:"column:scheduled_date"`
	LocationName    *string             `gorm:"column:location_name"`
	LocationAddress *string             `gorm:"column:location_address"`
	MemberIDs       dbtypes.UUIDArray   `gorm:"type:uuid[];column:member_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Poll carries a fixed option list for a party decision.
type Poll struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PartyID   uuid.UUID        `gorm:"column:party_id;type:uuid;not null;index"`
	CreatedBy uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	Question  string           `gorm:"column:question;not null"`
	Options   pq.StringArray   `gorm:"column:options;type:text[];not null"`
	Status    enums.PollStatus `gorm:"column:status;type:poll_status;not null;default:'open'"`
	ClosedAt  *time.Time       `gorm:"column:closed_at"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Vote is the single live vote a user holds on a poll; the unique index on
// (poll_id, user_id) backs the upsert that makes repeat casts overwrite.
type Vote struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PollID         uuid.UUID `gorm:"column:poll_id;type:uuid;not null;uniqueIndex:idx_votes_poll_user"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_votes_poll_user"`
	SelectedOption string    `gorm:"column:selected_option;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
