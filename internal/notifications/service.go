package notifications

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
	"github.com/00goop/lets-link/pkg/pagination"
)

// Service owns in-app notifications. Reads and mutations are recipient-only;
// creation happens through NotifyTx inside the emitting service's
// transaction, so a rolled-back action never leaves a stray notification.
type Service interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string) error
	List(ctx context.Context, principal access.Principal, unreadOnly bool, limit int) ([]NotificationDTO, error)
	UnreadCount(ctx context.Context, principal access.Principal) (int64, error)
	MarkRead(ctx context.Context, principal access.Principal, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, principal access.Principal) error
}

type service struct {
	repo Repository
}

// NewService wires the notification repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

// NotifyTx writes a notification row inside the caller's transaction.
func (s *service) NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !ntype.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification type %q", ntype))
	}
	return s.repo.WithTx(tx).Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Link:    link,
	})
}

func (s *service) List(ctx context.Context, principal access.Principal, unreadOnly bool, limit int) ([]NotificationDTO, error) {
	rows, err := s.repo.ListForUser(ctx, principal.UserID, unreadOnly, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, notificationToDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UnreadCount(ctx context.Context, principal access.Principal) (int64, error) {
	count, err := s.repo.CountUnread(ctx, principal.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, principal access.Principal, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if err := access.Require(access.CanWrite(principal, access.Resource{
		Kind:    access.KindNotification,
		OwnerID: notification.UserID,
	})); err != nil {
		return err
	}

	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, principal access.Principal) error {
	if err := s.repo.MarkAllRead(ctx, principal.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
