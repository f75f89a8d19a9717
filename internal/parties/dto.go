package parties

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// PartyDTO is the transport shape for a party. Roster is always the
// reconciled set, never the raw denormalized column.
type PartyDTO struct {
	ID              uuid.UUID           `json:"id"`
	Title           string              `json:"title"`
	Description     *string             `json:"description,omitempty"`
	Category        enums.PartyCategory `json:"category"`
	HostID          uuid.UUID           `json:"host_id"`
	JoinCode        string              `json:"join_code"`
	MaxSize         *int                `json:"max_size,omitempty"`
	Status          enums.PartyStatus   `json:"status"`
	ScheduledDate   *time.Time          `json:"scheduled_date,omitempty"`
	LocationName    *string             `json:"location_name,omitempty"`
	LocationAddress *string             `json:"location_address,omitempty"`
	Roster          []uuid.UUID         `json:"roster"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// PartyListDTO is one page of parties plus an opaque continuation cursor.
// An empty NextCursor means the last page.
type PartyListDTO struct {
	Parties    []PartyDTO `json:"parties"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toDTO(p *models.Party, roster []uuid.UUID) *PartyDTO {
	if p == nil {
		return nil
	}
	return &PartyDTO{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Category:        p.Category,
		HostID:          p.HostID,
		JoinCode:        p.JoinCode,
		MaxSize:         p.MaxSize,
		Status:          p.Status,
		ScheduledDate:   p.ScheduledDate,
		LocationName:    p.LocationName,
		LocationAddress: p.LocationAddress,
		Roster:          roster,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
