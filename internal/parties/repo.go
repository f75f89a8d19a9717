package parties

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	"github.com/00goop/lets-link/pkg/pagination"
)

// Repository exposes party persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, party *models.Party) error
	Get(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	GetForUpdate(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Party, error)
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Party, error)
	Update(ctx context.Context, partyID uuid.UUID, updates map[string]any) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a party repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, party *models.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *repositoryImpl) Get(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("id = ?", partyID).First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repositoryImpl) GetForUpdate(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).
		Raw(`SELECT * FROM parties WHERE id = ? FOR UPDATE`, partyID).
		Scan(&party).Error
	if err != nil {
		return nil, err
	}
	if party.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &party, nil
}

// GetByJoinCode matches case-insensitively; codes are stored uppercase.
func (r *repositoryImpl) GetByJoinCode(ctx context.Context, code string) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).
		Where("join_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Party, error) {
	query := r.db.WithContext(ctx).
		Where("host_id = ? OR ? = ANY(member_ids) OR id IN (SELECT party_id FROM party_members WHERE user_id = ? AND status <> ?)",
			userID, userID, userID, enums.MembershipStatusDeclined).
		Order("created_at DESC, id DESC")
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var parties []models.Party
	err := query.Find(&parties).Error
	return parties, err
}

func (r *repositoryImpl) Update(ctx context.Context, partyID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id = ?", partyID).
		Updates(updates).Error
}
