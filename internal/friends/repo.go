package friends

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// Repository exposes friend edge persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, friend *models.Friend) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friend, error)
	GetPair(ctx context.Context, a, b uuid.UUID) (*models.Friend, error)
	ListForUser(ctx context.Context, userID uuid.UUID, status *enums.FriendStatus) ([]models.Friend, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.FriendStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a friend repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, friend *models.Friend) error {
	return r.db.WithContext(ctx).Create(friend).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Friend, error) {
	var friend models.Friend
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&friend).Error
	if err != nil {
		return nil, err
	}
	return &friend, nil
}

// GetPair finds the edge between two users in either direction. A nil
// result with no error means no edge exists.
func (r *repositoryImpl) GetPair(ctx context.Context, a, b uuid.UUID) (*models.Friend, error) {
	var friend models.Friend
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)", a, b, b, a).
		First(&friend).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &friend, nil
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, status *enums.FriendStatus) ([]models.Friend, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? OR friend_user_id = ?", userID, userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Friend
	err := query.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.FriendStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": gorm.Expr("now()")}).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Friend{}, "id = ?", id).Error
}
