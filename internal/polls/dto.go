package polls

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// PollDTO is the outward shape of a poll.
type PollDTO struct {
	ID        uuid.UUID        `json:"id"`
	PartyID   uuid.UUID        `json:"partyId"`
	CreatedBy uuid.UUID        `json:"createdBy"`
	Question  string           `json:"question"`
	Options   []string         `json:"options"`
	Status    enums.PollStatus `json:"status"`
	ClosedAt  *time.Time       `json:"closedAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// TallyEntry is one option's result, in the poll's original option order.
type TallyEntry struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TallyResult summarizes all votes on a poll.
type TallyResult struct {
	PollID     uuid.UUID        `json:"pollId"`
	Status     enums.PollStatus `json:"status"`
	TotalVotes int              `json:"totalVotes"`
	Entries    []TallyEntry     `json:"entries"`
}

func pollToDTO(poll *models.Poll) PollDTO {
	options := make([]string, len(poll.Options))
	copy(options, poll.Options)
	return PollDTO{
		ID:        poll.ID,
		PartyID:   poll.PartyID,
		CreatedBy: poll.CreatedBy,
		Question:  poll.Question,
		Options:   options,
		Status:    poll.Status,
		ClosedAt:  poll.ClosedAt,
		CreatedAt: poll.CreatedAt,
	}
}
