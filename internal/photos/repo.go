package photos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/pkg/db/models"
)

// Repository exposes photo metadata persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]models.Photo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a photo repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("id = ?", partyID).First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repositoryImpl) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *repositoryImpl) ListByParty(ctx context.Context, partyID uuid.UUID) ([]models.Photo, error) {
	var out []models.Photo
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Photo{}, "id = ?", id).Error
}
