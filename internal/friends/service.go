package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
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

// Service manages friend edges: one edge per user pair regardless of
// direction, requested by one side and accepted by the other.
type Service interface {
	Request(ctx context.Context, principal access.Principal, friendUserID uuid.UUID) (*FriendDTO, error)
	Accept(ctx context.Context, principal access.Principal, friendshipID uuid.UUID) (*FriendDTO, error)
	Remove(ctx context.Context, principal access.Principal, friendshipID uuid.UUID) error
	List(ctx context.Context, principal access.Principal, status *enums.FriendStatus) ([]FriendDTO, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxEmitter
	notifier Notifier
}

// NewService wires friend dependencies. The notifier is optional.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "friends repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, notifier: notifier}, nil
}

func (s *service) Request(ctx context.Context, principal access.Principal, friendUserID uuid.UUID) (*FriendDTO, error) {
	if friendUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "friend user id required")
	}
	if friendUserID == principal.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot send a friend request to yourself")
	}

	existing, err := s.repo.GetPair(ctx, principal.UserID, friendUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing friendship")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "friendship already exists")
	}

	friend := &models.Friend{
		UserID:       principal.UserID,
		FriendUserID: friendUserID,
		Status:       enums.FriendStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, friend); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create friendship")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFriendRequested,
			AggregateType: enums.AggregateFriend,
			AggregateID:   friend.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          friendEventPayload{FriendshipID: friend.ID, RequesterID: principal.UserID, RecipientID: friendUserID},
			Version:       1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit friend requested")
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyTx(ctx, tx, friendUserID, enums.NotificationTypeFriendRequest,
				"Friend request", "You have a new friend request", nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify recipient")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := friendToDTO(friend)
	return &dto, nil
}

// Accept flips a pending edge to accepted. Only the recipient may accept.
func (s *service) Accept(ctx context.Context, principal access.Principal, friendshipID uuid.UUID) (*FriendDTO, error) {
	if friendshipID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "friendship id required")
	}

	var accepted *FriendDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		friend, err := repo.GetByID(ctx, friendshipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "friendship not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load friendship")
		}
		if friend.FriendUserID != principal.UserID && principal.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the recipient may accept a friend request")
		}
		if friend.Status != enums.FriendStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "friend request is not pending")
		}

		if err := repo.UpdateStatus(ctx, friendshipID, enums.FriendStatusAccepted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept friendship")
		}
		friend.Status = enums.FriendStatusAccepted

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFriendAccepted,
			AggregateType: enums.AggregateFriend,
			AggregateID:   friend.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          friendEventPayload{FriendshipID: friend.ID, RequesterID: friend.UserID, RecipientID: friend.FriendUserID},
			Version:       1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit friend accepted")
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyTx(ctx, tx, friend.UserID, enums.NotificationTypeFriendRequest,
				"Friend request accepted", "Your friend request was accepted", nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify requester")
			}
		}

		dto := friendToDTO(friend)
		accepted = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

func (s *service) Remove(ctx context.Context, principal access.Principal, friendshipID uuid.UUID) error {
	if friendshipID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "friendship id required")
	}

	friend, err := s.repo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "friendship not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load friendship")
	}
	if !isParticipant(principal, friend) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you cannot remove this friendship")
	}

	if err := s.repo.Delete(ctx, friendshipID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete friendship")
	}
	return nil
}

func (s *service) List(ctx context.Context, principal access.Principal, status *enums.FriendStatus) ([]FriendDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid friend status")
	}
	rows, err := s.repo.ListForUser(ctx, principal.UserID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list friendships")
	}
	out := make([]FriendDTO, 0, len(rows))
	for i := range rows {
		out = append(out, friendToDTO(&rows[i]))
	}
	return out, nil
}

func isParticipant(principal access.Principal, friend *models.Friend) bool {
	if principal.Role == enums.UserRoleAdmin {
		return true
	}
	return friend.UserID == principal.UserID || friend.FriendUserID == principal.UserID
}

type friendEventPayload struct {
	FriendshipID uuid.UUID `json:"friendshipId"`
	RequesterID  uuid.UUID `json:"requesterId"`
	RecipientID  uuid.UUID `json:"recipientId"`
}
