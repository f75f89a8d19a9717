package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/enums"
)

// User is the minimal principal record. Registration and authentication are
// handled by an external identity service; rows here exist so friend edges,
// photos, and notifications have something to reference.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string         `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string         `gorm:"column:display_name;not null"`
	Role        enums.UserRole `gorm:"column:role;type:user_role;not null;default:'member'"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
