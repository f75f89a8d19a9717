package polls

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
)

// Repository exposes poll and vote persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	UpdatePartyLocation(ctx context.Context, partyID uuid.UUID, name, address *string) error
	CreatePoll(ctx context.Context, poll *models.Poll) error
	GetPoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error)
	GetPollForUpdate(ctx context.Context, pollID uuid.UUID) (*models.Poll, error)
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]models.Poll, error)
	ClosePoll(ctx context.Context, pollID uuid.UUID) error
	UpsertVote(ctx context.Context, vote *models.Vote) error
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a poll repository bound to the provided database.
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

func (r *repositoryImpl) UpdatePartyLocation(ctx context.Context, partyID uuid.UUID, name, address *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id = ?", partyID).
		Updates(map[string]any{
			"location_name":    name,
			"location_address": address,
		}).Error
}

func (r *repositoryImpl) CreatePoll(ctx context.Context, poll *models.Poll) error {
	return r.db.WithContext(ctx).Create(poll).Error
}

func (r *repositoryImpl) GetPoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).Where("id = ?", pollID).First(&poll).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetPollForUpdate locks the poll row. Vote casting and closing both take
// this lock, which is what makes the close latch airtight: a vote in flight
// either commits before the close or observes closed status and fails.
func (r *repositoryImpl) GetPollForUpdate(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Raw(`SELECT * FROM polls WHERE id = ? FOR UPDATE`, pollID).
		Scan(&poll).Error
	if err != nil {
		return nil, err
	}
	if poll.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &poll, nil
}

func (r *repositoryImpl) ListByParty(ctx context.Context, partyID uuid.UUID) ([]models.Poll, error) {
	var polls []models.Poll
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC").
		Find(&polls).Error
	return polls, err
}

func (r *repositoryImpl) ClosePoll(ctx context.Context, pollID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Poll{}).
		Where("id = ? AND status = ?", pollID, enums.PollStatusOpen).
		Updates(map[string]any{
			"status":    enums.PollStatusClosed,
			"closed_at": gorm.Expr("now()"),
		}).Error
}

// UpsertVote keeps exactly one live vote per (poll, voter); a repeat cast
// overwrites the selected option under the database's total order.
func (r *repositoryImpl) UpsertVote(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO votes (poll_id, user_id, selected_option)
		      VALUES (?, ?, ?)
		      ON CONFLICT (poll_id, user_id)
		      DO UPDATE SET selected_option = EXCLUDED.selected_option, updated_at = now()`,
			vote.PollID, vote.UserID, vote.SelectedOption).
		Error
}

func (r *repositoryImpl) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at").
		Find(&votes).Error
	return votes, err
}
