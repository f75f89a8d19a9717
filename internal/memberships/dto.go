package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// RosterView is the reconciled membership answer for a party.
type RosterView struct {
	PartyID uuid.UUID   `json:"party_id"`
	HostID  uuid.UUID   `json:"host_id"`
	UserIDs []uuid.UUID `json:"user_ids"`
}

// MemberDTO is the transport shape for a membership record.
type MemberDTO struct {
	ID           uuid.UUID              `json:"id"`
	PartyID      uuid.UUID              `json:"party_id"`
	UserID       uuid.UUID              `json:"user_id"`
	Status       enums.MembershipStatus `json:"status"`
	LocationLat  *float64               `json:"location_lat,omitempty"`
	LocationLng  *float64               `json:"location_lng,omitempty"`
	LocationName *string                `json:"location_name,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func memberToDTO(m *models.PartyMember) MemberDTO {
	return MemberDTO{
		ID:           m.ID,
		PartyID:      m.PartyID,
		UserID:       m.UserID,
		Status:       m.Status,
		LocationLat:  m.LocationLat,
		LocationLng:  m.LocationLng,
		LocationName: m.LocationName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
