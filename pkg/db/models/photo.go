package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is the metadata row for a shared-album upload. The binary lives in
// object storage; the API only hands out signed URLs.
type Photo struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PartyID    uuid.UUID `gorm:"column:party_id;type:uuid;not null;index"`
	UploadedBy uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null"`
	ObjectKey  string    `gorm:"column:object_key;not null"`
	Caption    *string   `gorm:"column:caption"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
