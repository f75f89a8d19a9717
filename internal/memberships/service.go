package memberships

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/geo"
	"github.com/00goop/lets-link/pkg/metrics"
	"github.com/00goop/lets-link/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier creates an in-app notification inside the caller's transaction.
type Notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string) error
}

// Service is the single owner of "who is in this party". Every mutation
// keeps the relational rows and the denormalized roster in one atomic unit;
// every read reconciles the two.
type Service interface {
	Join(ctx context.Context, principal access.Principal, partyID uuid.UUID, params JoinParams) (*RosterView, error)
	Leave(ctx context.Context, principal access.Principal, memberID uuid.UUID) error
	Update(ctx context.Context, principal access.Principal, memberID uuid.UUID, params UpdateParams) (*MemberDTO, error)
	Roster(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error)
	Members(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]MemberDTO, error)
	MemberCoordinates(ctx context.Context, partyID uuid.UUID) ([]geo.Coordinate, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxEmitter
	notifier Notifier
	metrics  *metrics.AppMetrics
}

// JoinParams describes a join or invite. UserID defaults to the principal.
type JoinParams struct {
	UserID       uuid.UUID
	Status       enums.MembershipStatus
	Coordinate   *geo.Coordinate
	LocationName *string
}

// UpdateParams mutates a membership's status and/or reported location.
type UpdateParams struct {
	Status       *enums.MembershipStatus
	Coordinate   *geo.Coordinate
	LocationName *string
}

// NewService wires membership dependencies. The notifier and metrics are
// optional.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter, notifier Notifier, appMetrics *metrics.AppMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, notifier: notifier, metrics: appMetrics}, nil
}

func (s *service) Join(ctx context.Context, principal access.Principal, partyID uuid.UUID, params JoinParams) (*RosterView, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	userID := params.UserID
	if userID == uuid.Nil {
		userID = principal.UserID
	}
	status := params.Status
	if status == "" {
		status = enums.MembershipStatusConfirmed
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid membership status %q", status))
	}
	if params.Coordinate != nil {
		if err := params.Coordinate.Validate(); err != nil {
			return nil, err
		}
	}

	var view *RosterView
	var joined bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		party, err := repo.GetPartyForUpdate(ctx, partyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}

		if err := access.Require(access.CanWrite(principal, access.Resource{
			Kind:    access.KindMembership,
			PartyID: party.ID,
			HostID:  party.HostID,
			OwnerID: userID,
		})); err != nil {
			return err
		}

		activeIDs, err := repo.ListActiveMemberIDs(ctx, partyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active members")
		}
		roster := reconcileRoster(party.MemberIDs, activeIDs, party.HostID)

		joining := status.CountsTowardRoster() && !roster.Contains(userID)
		joined = joining
		if joining {
			if party.Status != enums.PartyStatusPlanning {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("party is %s and cannot be joined", party.Status))
			}
			if party.MaxSize != nil && len(roster) >= *party.MaxSize-1 {
				return pkgerrors.New(pkgerrors.CodeConflict, "party is at capacity")
			}
		}

		member := &models.PartyMember{
			PartyID:      partyID,
			UserID:       userID,
			Status:       status,
			LocationName: params.LocationName,
		}
		if params.Coordinate != nil {
			lat, lng := params.Coordinate.Lat, params.Coordinate.Lng
			member.LocationLat, member.LocationLng = &lat, &lng
		}
		if err := repo.UpsertMember(ctx, member); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert membership")
		}

		if status.CountsTowardRoster() {
			roster = applyJoin(roster, userID)
		} else {
			roster = applyLeave(roster, userID, party.HostID)
		}
		if err := repo.UpdateRoster(ctx, partyID, roster); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update roster")
		}

		if joining {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventMemberJoined,
				AggregateType: enums.AggregateMembership,
				AggregateID:   partyID,
				Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
				Data:          memberEventPayload{PartyID: partyID, UserID: userID, Status: status},
				Version:       1,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit member joined")
			}
			if s.notifier != nil && userID != party.HostID {
				if err := s.notifier.NotifyTx(ctx, tx, party.HostID, enums.NotificationTypeMemberJoined,
					"New member", fmt.Sprintf("Someone joined %s", party.Title), nil); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify host")
				}
			}
		}

		view = &RosterView{PartyID: partyID, HostID: party.HostID, UserIDs: roster}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if joined {
		s.metrics.IncPartyJoins()
	}
	return view, nil
}

func (s *service) Leave(ctx context.Context, principal access.Principal, memberID uuid.UUID) error {
	if memberID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.GetMemberByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
		}

		party, err := repo.GetPartyForUpdate(ctx, member.PartyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}

		if err := access.Require(access.CanWrite(principal, access.Resource{
			Kind:    access.KindMembership,
			PartyID: party.ID,
			HostID:  party.HostID,
			OwnerID: member.UserID,
		})); err != nil {
			return err
		}
		if member.UserID == party.HostID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "host cannot leave their own party")
		}

		member.Status = enums.MembershipStatusDeclined
		if err := repo.UpsertMember(ctx, member); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline membership")
		}

		activeIDs, err := repo.ListActiveMemberIDs(ctx, member.PartyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active members")
		}
		roster := reconcileRoster(party.MemberIDs, activeIDs, party.HostID)
		roster = applyLeave(roster, member.UserID, party.HostID)
		if err := repo.UpdateRoster(ctx, member.PartyID, roster); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update roster")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMemberLeft,
			AggregateType: enums.AggregateMembership,
			AggregateID:   member.PartyID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          memberEventPayload{PartyID: member.PartyID, UserID: member.UserID, Status: enums.MembershipStatusDeclined},
			Version:       1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit member left")
		}

		if s.notifier != nil {
			if err := s.notifier.NotifyTx(ctx, tx, party.HostID, enums.NotificationTypeMemberLeft,
				"Member left", fmt.Sprintf("Someone left %s", party.Title), nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify host")
			}
		}
		return nil
	})
}

func (s *service) Update(ctx context.Context, principal access.Principal, memberID uuid.UUID, params UpdateParams) (*MemberDTO, error) {
	if memberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid membership status %q", *params.Status))
	}
	if params.Coordinate != nil {
		if err := params.Coordinate.Validate(); err != nil {
			return nil, err
		}
	}

	var updated *MemberDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.GetMemberByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
		}

		party, err := repo.GetPartyForUpdate(ctx, member.PartyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}

		if err := access.Require(access.CanWrite(principal, access.Resource{
			Kind:    access.KindMembership,
			PartyID: party.ID,
			HostID:  party.HostID,
			OwnerID: member.UserID,
		})); err != nil {
			return err
		}

		if params.Coordinate != nil || params.LocationName != nil {
			var lat, lng *float64
			if params.Coordinate != nil {
				la, ln := params.Coordinate.Lat, params.Coordinate.Lng
				lat, lng = &la, &ln
			}
			if err := repo.UpdateMemberLocation(ctx, memberID, lat, lng, params.LocationName); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member location")
			}
		}

		if params.Status != nil && *params.Status != member.Status {
			member.Status = *params.Status
			if err := repo.UpsertMember(ctx, member); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership status")
			}

			activeIDs, err := repo.ListActiveMemberIDs(ctx, member.PartyID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active members")
			}
			roster := reconcileRoster(party.MemberIDs, activeIDs, party.HostID)
			if member.Status.CountsTowardRoster() {
				roster = applyJoin(roster, member.UserID)
			} else {
				roster = applyLeave(roster, member.UserID, party.HostID)
			}
			if err := repo.UpdateRoster(ctx, member.PartyID, roster); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update roster")
			}
		}

		fresh, err := repo.GetMemberByID(ctx, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload membership")
		}
		dto := memberToDTO(fresh)
		updated = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Roster returns the reconciled member set: denormalized ids ∪ active rows
// ∪ {host}. This is the only roster read the rest of the system uses.
func (s *service) Roster(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}

	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	activeIDs, err := s.repo.ListActiveMemberIDs(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active members")
	}
	return reconcileRoster(party.MemberIDs, activeIDs, party.HostID), nil
}

func (s *service) Members(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]MemberDTO, error) {
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}

	roster, err := s.Roster(ctx, partyID)
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

	rows, err := s.repo.ListMembers(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	out := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, memberToDTO(&rows[i]))
	}
	return out, nil
}

// MemberCoordinates returns the reported coordinates of non-declined
// members, the midpoint input for venue suggestions.
func (s *service) MemberCoordinates(ctx context.Context, partyID uuid.UUID) ([]geo.Coordinate, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	rows, err := s.repo.ListMembers(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	coords := make([]geo.Coordinate, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		if m.Status == enums.MembershipStatusDeclined || m.LocationLat == nil || m.LocationLng == nil {
			continue
		}
		coords = append(coords, geo.Coordinate{Lat: *m.LocationLat, Lng: *m.LocationLng})
	}
	return coords, nil
}

type memberEventPayload struct {
	PartyID uuid.UUID              `json:"partyId"`
	UserID  uuid.UUID              `json:"userId"`
	Status  enums.MembershipStatus `json:"status"`
}
