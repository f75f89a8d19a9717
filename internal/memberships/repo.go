package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/00goop/lets-link/pkg/db/types"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// Repository exposes membership and roster persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	GetPartyForUpdate(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	GetMember(ctx context.Context, partyID, userID uuid.UUID) (*models.PartyMember, error)
	GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.PartyMember, error)
	UpsertMember(ctx context.Context, member *models.PartyMember) error
	ListMembers(ctx context.Context, partyID uuid.UUID) ([]models.PartyMember, error)
	ListActiveMemberIDs(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error)
	UpdateRoster(ctx context.Context, partyID uuid.UUID, roster dbtypes.UUIDArray) error
	UpdateMemberLocation(ctx context.Context, memberID uuid.UUID, lat, lng *float64, label *string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a membership repository bound to the provided database.
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

// GetPartyForUpdate takes a row lock on the party so concurrent join/leave
// for the same party serialize before the roster write.
func (r *repositoryImpl) GetPartyForUpdate(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
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

func (r *repositoryImpl) GetMember(ctx context.Context, partyID, userID uuid.UUID) (*models.PartyMember, error) {
	var member models.PartyMember
	err := r.db.WithContext(ctx).
		Where("party_id = ? AND user_id = ?", partyID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repositoryImpl) GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.PartyMember, error) {
	var member models.PartyMember
	err := r.db.WithContext(ctx).Where("id = ?", memberID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertMember inserts the (party, user) row or updates its status and
// location in place; the unique index backs the conflict target.
func (r *repositoryImpl) UpsertMember(ctx context.Context, member *models.PartyMember) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO party_members (party_id, user_id, status, location_lat, location_lng, location_name)
		      VALUES (?, ?, ?, ?, ?, ?)
		      ON CONFLICT (party_id, user_id)
		      DO UPDATE SET status = EXCLUDED.status,
		                    location_lat = COALESCE(EXCLUDED.location_lat, party_members.location_lat),
		                    location_lng = COALESCE(EXCLUDED.location_lng, party_members.location_lng),
		                    location_name = COALESCE(EXCLUDED.location_name, party_members.location_name),
		                    updated_at = now()`,
			member.PartyID, member.UserID, member.Status,
			member.LocationLat, member.LocationLng, member.LocationName).
		Error
}

func (r *repositoryImpl) ListMembers(ctx context.Context, partyID uuid.UUID) ([]models.PartyMember, error) {
	var members []models.PartyMember
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at").
		Find(&members).Error
	return members, err
}

func (r *repositoryImpl) ListActiveMemberIDs(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PartyMember{}).
		Where("party_id = ? AND status <> ?", partyID, enums.MembershipStatusDeclined).
		Order("created_at").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *repositoryImpl) UpdateRoster(ctx context.Context, partyID uuid.UUID, roster dbtypes.UUIDArray) error {
	return r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id = ?", partyID).
		UpdateColumn("member_ids", roster).Error
}

func (r *repositoryImpl) UpdateMemberLocation(ctx context.Context, memberID uuid.UUID, lat, lng *float64, label *string) error {
	updates := map[string]any{}
	if lat != nil {
		updates["location_lat"] = *lat
	}
	if lng != nil {
		updates["location_lng"] = *lng
	}
	if label != nil {
		updates["location_name"] = *label
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PartyMember{}).
		Where("id = ?", memberID).
		Updates(updates).Error
}
