package photos

import (
	"time"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/pkg/db/models"
)

// PhotoDTO is the transport shape for a photo. DownloadURL is a short-lived
// signed link, populated on reads.
type PhotoDTO struct {
	ID          uuid.UUID `json:"id"`
	PartyID     uuid.UUID `json:"party_id"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	Caption     *string   `json:"caption,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadDTO pairs a new photo row with the signed PUT URL for its binary.
type UploadDTO struct {
	Photo     PhotoDTO `json:"photo"`
	UploadURL string   `json:"upload_url"`
}

func photoToDTO(p *models.Photo) PhotoDTO {
	return PhotoDTO{
		ID:         p.ID,
		PartyID:    p.PartyID,
		UploadedBy: p.UploadedBy,
		Caption:    p.Caption,
		CreatedAt:  p.CreatedAt,
	}
}
