package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/config"
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

type rosterProvider interface {
	Roster(ctx context.Context, partyID uuid.UUID) ([]uuid.UUID, error)
}

// objectSigner hands out signed upload and download URLs; binaries never
// pass through the API.
type objectSigner interface {
	DefaultBucket() string
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service manages the shared album of a party.
type Service interface {
	CreateUpload(ctx context.Context, principal access.Principal, partyID uuid.UUID, contentType string, caption *string) (*UploadDTO, error)
	List(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]PhotoDTO, error)
	Delete(ctx context.Context, principal access.Principal, photoID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
	roster rosterProvider
	signer objectSigner
	cfg    config.GCSConfig
}

// NewService wires photo dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter, roster rosterProvider, signer objectSigner, cfg config.GCSConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "photos repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if roster == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "roster provider required")
	}
	if signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "object signer required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, roster: roster, signer: signer, cfg: cfg}, nil
}

// CreateUpload reserves an object key, records the metadata row and hands
// back a signed PUT URL the client uploads the binary to.
func (s *service) CreateUpload(ctx context.Context, principal access.Principal, partyID uuid.UUID, contentType string, caption *string) (*UploadDTO, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type must be an image")
	}

	party, roster, err := s.loadPartyContext(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanWrite(principal, access.Resource{
		Kind:    access.KindPhoto,
		PartyID: party.ID,
		HostID:  party.HostID,
		Roster:  roster,
	})); err != nil {
		return nil, err
	}

	photo := &models.Photo{
		PartyID:    partyID,
		UploadedBy: principal.UserID,
		ObjectKey:  fmt.Sprintf("photos/%s/%s", partyID, uuid.New()),
		Caption:    caption,
	}
	uploadURL, err := s.signer.SignedURL(s.signer.DefaultBucket(), photo.ObjectKey, contentType, s.cfg.UploadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, photo); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create photo")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPhotoUploaded,
			AggregateType: enums.AggregatePhoto,
			AggregateID:   photo.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          photoEventPayload{PhotoID: photo.ID, PartyID: partyID, UploadedBy: principal.UserID},
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}

	return &UploadDTO{Photo: photoToDTO(photo), UploadURL: uploadURL}, nil
}

func (s *service) List(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]PhotoDTO, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	party, roster, err := s.loadPartyContext(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanRead(principal, access.Resource{
		Kind:    access.KindPhoto,
		PartyID: party.ID,
		HostID:  party.HostID,
		Roster:  roster,
	})); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	out := make([]PhotoDTO, 0, len(rows))
	for i := range rows {
		dto := photoToDTO(&rows[i])
		if url, err := s.signer.SignedReadURL(s.signer.DefaultBucket(), rows[i].ObjectKey, s.cfg.DownloadURLExpiry); err == nil {
			dto.DownloadURL = url
		}
		out = append(out, dto)
	}
	return out, nil
}

// Delete removes the metadata row and the stored object. Only the uploader
// or the party host may delete.
func (s *service) Delete(ctx context.Context, principal access.Principal, photoID uuid.UUID) error {
	if photoID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "photo id required")
	}

	photo, err := s.repo.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
	}
	party, err := s.repo.GetParty(ctx, photo.PartyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	if principal.UserID != photo.UploadedBy && principal.UserID != party.HostID && principal.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the uploader or host may delete a photo")
	}

	if err := s.repo.Delete(ctx, photoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo")
	}
	if err := s.signer.DeleteObject(ctx, s.signer.DefaultBucket(), photo.ObjectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stored object")
	}
	return nil
}

func (s *service) loadPartyContext(ctx context.Context, partyID uuid.UUID) (*models.Party, []uuid.UUID, error) {
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	roster, err := s.roster.Roster(ctx, partyID)
	if err != nil {
		return nil, nil, err
	}
	return party, roster, nil
}

type photoEventPayload struct {
	PhotoID    uuid.UUID `json:"photoId"`
	PartyID    uuid.UUID `json:"partyId"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
}
