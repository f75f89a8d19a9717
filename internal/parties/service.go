package parties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/internal/memberships"
	dbpkg "github.com/00goop/lets-link/pkg/db"
	dbtypes "github.com/00goop/lets-link/pkg/db/types"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/outbox"
	"github.com/00goop/lets-link/pkg/pagination"
)

const joinCodeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type rosterProvider interface {
	Roster(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error)
	Join(ctx context.Context, principal access.Principal, partyID uuid.UUID, params memberships.JoinParams) (*memberships.RosterView, error)
}

// Service defines party lifecycle operations.
type Service interface {
	Create(ctx context.Context, principal access.Principal, params CreateParams) (*PartyDTO, error)
	Get(ctx context.Context, principal access.Principal, partyID uuid.UUID) (*PartyDTO, error)
	ListMine(ctx context.Context, principal access.Principal, params ListParams) (*PartyListDTO, error)
	Update(ctx context.Context, principal access.Principal, partyID uuid.UUID, params UpdateParams) (*PartyDTO, error)
	JoinByCode(ctx context.Context, principal access.Principal, code string) (*PartyDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxEmitter
	members rosterProvider
}

// CreateParams carries the host-provided party attributes.
type CreateParams struct {
	Title         string              `json:"title" validate:"required,min=1,max=160"`
	Description   *string             `json:"description,omitempty"`
	Category      enums.PartyCategory `json:"category" validate:"required"`
	MaxSize       *int                `json:"max_size,omitempty" validate:"omitempty,min=2"`
	ScheduledDate *time.Time          `json:"scheduled_date,omitempty"`
}

// ListParams selects a page of the caller's parties. Cursor is the opaque
// value returned by the previous page, empty for the first.
type ListParams struct {
	Limit  int
	Cursor string
}

// UpdateParams carries host-editable fields; nil means unchanged.
type UpdateParams struct {
	Title           *string            `json:"title,omitempty"`
	Description     *string            `json:"description,omitempty"`
	Status          *enums.PartyStatus `json:"status,omitempty"`
	ScheduledDate   *time.Time         `json:"scheduled_date,omitempty"`
	MaxSize         *int               `json:"max_size,omitempty"`
	LocationName    *string            `json:"location_name,omitempty"`
	LocationAddress *string            `json:"location_address,omitempty"`
}

// NewService wires party dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter, members rosterProvider) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "parties repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "membership service required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, members: members}, nil
}

func (s *service) Create(ctx context.Context, principal access.Principal, params CreateParams) (*PartyDTO, error) {
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid party category %q", params.Category))
	}
	if params.MaxSize != nil && *params.MaxSize < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_size must allow at least the host and one member")
	}

	var party *models.Party
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for attempt := 0; ; attempt++ {
			code, err := generateJoinCode()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate join code")
			}
			candidate := &models.Party{
				Title:         params.Title,
				Description:   params.Description,
				Category:      params.Category,
				HostID:        principal.UserID,
				JoinCode:      code,
				MaxSize:       params.MaxSize,
				Status:        enums.PartyStatusPlanning,
				ScheduledDate: params.ScheduledDate,
				MemberIDs:     dbtypes.UUIDArray{principal.UserID},
			}
			err = repo.Create(ctx, candidate)
			if err == nil {
				party = candidate
				break
			}
			if dbpkg.IsUniqueViolation(err, "idx_parties_join_code") && attempt < joinCodeAttempts-1 {
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create party")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPartyCreated,
			AggregateType: enums.AggregateParty,
			AggregateID:   party.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          partyEventPayload{PartyID: party.ID, Status: party.Status},
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return toDTO(party, []uuid.UUID{principal.UserID}), nil
}

func (s *service) Get(ctx context.Context, principal access.Principal, partyID uuid.UUID) (*PartyDTO, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}

	party, err := s.repo.Get(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}

	roster, err := s.members.Roster(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(access.CanRead(principal, access.Resource{
		Kind:        access.KindParty,
		PartyID:     party.ID,
		HostID:      party.HostID,
		PartyStatus: party.Status,
		Roster:      roster,
	})); err != nil {
		return nil, err
	}

	return toDTO(party, roster), nil
}

func (s *service) ListMine(ctx context.Context, principal access.Principal, params ListParams) (*PartyListDTO, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByUser(ctx, principal.UserID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parties")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	out := make([]PartyDTO, 0, len(rows))
	for i := range rows {
		roster, err := s.members.Roster(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *toDTO(&rows[i], roster))
	}
	return &PartyListDTO{Parties: out, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, principal access.Principal, partyID uuid.UUID, params UpdateParams) (*PartyDTO, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}

	var updatedParty *models.Party
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		party, err := repo.GetForUpdate(ctx, partyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}

		if err := access.Require(access.CanWrite(principal, access.Resource{
			Kind:    access.KindParty,
			PartyID: party.ID,
			HostID:  party.HostID,
		})); err != nil {
			return err
		}

		updates := map[string]any{}
		if params.Title != nil {
			if *params.Title == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "title required")
			}
			updates["title"] = *params.Title
		}
		if params.Description != nil {
			updates["description"] = *params.Description
		}
		if params.ScheduledDate != nil {
			updates["scheduled_date"] = *params.ScheduledDate
		}
		if params.MaxSize != nil {
			if *params.MaxSize < 2 {
				return pkgerrors.New(pkgerrors.CodeValidation, "max_size must allow at least the host and one member")
			}
			updates["max_size"] = *params.MaxSize
		}
		if params.LocationName != nil {
			updates["location_name"] = *params.LocationName
		}
		if params.LocationAddress != nil {
			updates["location_address"] = *params.LocationAddress
		}

		statusChanged := false
		if params.Status != nil && *params.Status != party.Status {
			if !params.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid party status %q", *params.Status))
			}
			if !party.Status.CanTransitionTo(*params.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot transition party from %s to %s", party.Status, *params.Status))
			}
			updates["status"] = *params.Status
			statusChanged = true
		}

		if len(updates) > 0 {
			if err := repo.Update(ctx, partyID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update party")
			}
		}

		if statusChanged {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPartyStatusChanged,
				AggregateType: enums.AggregateParty,
				AggregateID:   partyID,
				Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
				Data:          partyEventPayload{PartyID: partyID, Status: *params.Status},
				Version:       1,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
			}
		}

		updatedParty, err = repo.Get(ctx, partyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload party")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roster, err := s.members.Roster(ctx, partyID)
	if err != nil {
		return nil, err
	}
	return toDTO(updatedParty, roster), nil
}

func (s *service) JoinByCode(ctx context.Context, principal access.Principal, code string) (*PartyDTO, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "join code required")
	}

	party, err := s.repo.GetByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no party for that join code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup join code")
	}

	view, err := s.members.Join(ctx, principal, party.ID, memberships.JoinParams{})
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.Get(ctx, party.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload party")
	}
	return toDTO(fresh, view.UserIDs), nil
}

type partyEventPayload struct {
	PartyID uuid.UUID         `json:"partyId"`
	Status  enums.PartyStatus `json:"status"`
}
