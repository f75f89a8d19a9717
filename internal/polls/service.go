package polls

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/internal/suggestions"
	"github.com/00goop/lets-link/pkg/db/models"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/metrics"
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

// Notifier creates an in-app notification inside the caller's transaction.
type Notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string) error
}

// Service runs party polls: a fixed option list, one live vote per user,
// and a one-way open to closed latch.
type Service interface {
	Create(ctx context.Context, principal access.Principal, partyID uuid.UUID, question string, options []string) (*PollDTO, error)
	Get(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*PollDTO, error)
	ListByParty(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]PollDTO, error)
	CastVote(ctx context.Context, principal access.Principal, pollID uuid.UUID, option string) error
	Close(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*PollDTO, error)
	Tally(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*TallyResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxEmitter
	roster   rosterProvider
	notifier Notifier
	metrics  *metrics.AppMetrics
}

// NewService wires poll dependencies. The notifier and metrics are optional.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter, roster rosterProvider, notifier Notifier, appMetrics *metrics.AppMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "polls repository required")
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
	return &service{repo: repo, tx: tx, outbox: outboxSvc, roster: roster, notifier: notifier, metrics: appMetrics}, nil
}

func (s *service) Create(ctx context.Context, principal access.Principal, partyID uuid.UUID, question string, options []string) (*PollDTO, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question required")
	}
	if len(options) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one option required")
	}
	seen := make(map[string]struct{}, len(options))
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option %d is empty", i+1))
		}
		if _, dup := seen[opt]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate option")
		}
		seen[opt] = struct{}{}
	}

	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	roster, err := s.roster.Roster(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanWrite(principal, access.Resource{
		Kind:      access.KindPoll,
		PartyID:   party.ID,
		HostID:    party.HostID,
		CreatorID: principal.UserID,
		Roster:    roster,
	})); err != nil {
		return nil, err
	}

	poll := &models.Poll{
		PartyID:   partyID,
		CreatedBy: principal.UserID,
		Question:  question,
		Options:   pq.StringArray(options),
		Status:    enums.PollStatusOpen,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePoll(ctx, poll); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create poll")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPollCreated,
			AggregateType: enums.AggregatePoll,
			AggregateID:   poll.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          pollEventPayload{PollID: poll.ID, PartyID: partyID, Question: question},
			Version:       1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit poll created")
		}
		if s.notifier != nil && principal.UserID != party.HostID {
			if err := s.notifier.NotifyTx(ctx, tx, party.HostID, enums.NotificationTypePollCreated,
				"New poll", fmt.Sprintf("A poll was opened in %s", party.Title), nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify host")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := pollToDTO(poll)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*PollDTO, error) {
	poll, party, roster, err := s.loadPollContext(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanRead(principal, access.Resource{
		Kind:      access.KindPoll,
		PartyID:   party.ID,
		HostID:    party.HostID,
		CreatorID: poll.CreatedBy,
		Roster:    roster,
	})); err != nil {
		return nil, err
	}
	dto := pollToDTO(poll)
	return &dto, nil
}

func (s *service) ListByParty(ctx context.Context, principal access.Principal, partyID uuid.UUID) ([]PollDTO, error) {
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
	roster, err := s.roster.Roster(ctx, partyID)
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

	rows, err := s.repo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list polls")
	}
	out := make([]PollDTO, 0, len(rows))
	for i := range rows {
		out = append(out, pollToDTO(&rows[i]))
	}
	return out, nil
}

// CastVote upserts the caller's single live vote. The open check happens
// under the poll row lock, so a vote racing a close either commits before
// the latch flips or fails here.
func (s *service) CastVote(ctx context.Context, principal access.Principal, pollID uuid.UUID, option string) error {
	if pollID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "poll id required")
	}
	if option == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "option required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		poll, err := repo.GetPollForUpdate(ctx, pollID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "poll not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load poll")
		}
		if poll.Status != enums.PollStatusOpen {
			return pkgerrors.New(pkgerrors.CodeConflict, "poll is closed")
		}
		if !containsOption(poll.Options, option) {
			return pkgerrors.New(pkgerrors.CodeConflict, "option is not part of this poll")
		}

		party, err := repo.GetParty(ctx, poll.PartyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}
		roster, err := s.roster.Roster(ctx, poll.PartyID)
		if err != nil {
			return err
		}
		if err := access.Require(access.CanWrite(principal, access.Resource{
			Kind:      access.KindVote,
			PartyID:   party.ID,
			HostID:    party.HostID,
			CreatorID: poll.CreatedBy,
			OwnerID:   principal.UserID,
			Roster:    roster,
		})); err != nil {
			return err
		}
		if !inRoster(principal.UserID, roster) && principal.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this party")
		}

		if err := repo.UpsertVote(ctx, &models.Vote{
			PollID:         pollID,
			UserID:         principal.UserID,
			SelectedOption: option,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert vote")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVoteCast,
			AggregateType: enums.AggregatePoll,
			AggregateID:   pollID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          voteEventPayload{PollID: pollID, PartyID: poll.PartyID, UserID: principal.UserID},
			Version:       1,
		})
	})
	if err != nil {
		return err
	}

	s.metrics.IncVotesCast()
	return nil
}

// Close flips the one-way latch and, when the winning option decodes as a
// venue suggestion, copies it onto the party as the chosen location.
func (s *service) Close(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*PollDTO, error) {
	if pollID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "poll id required")
	}

	var closed *PollDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		poll, err := repo.GetPollForUpdate(ctx, pollID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "poll not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load poll")
		}
		if poll.Status != enums.PollStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "poll is already closed")
		}

		party, err := repo.GetParty(ctx, poll.PartyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}
		if err := access.Require(access.CanClosePoll(principal, access.Resource{
			Kind:      access.KindPoll,
			PartyID:   party.ID,
			HostID:    party.HostID,
			CreatorID: poll.CreatedBy,
		})); err != nil {
			return err
		}

		if err := repo.ClosePoll(ctx, pollID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close poll")
		}

		votes, err := repo.ListVotes(ctx, pollID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list votes")
		}
		entries, total := tallyVotes(poll.Options, votes)
		if winner, ok := winningOption(entries, total); ok {
			if sug, isVenue := suggestions.Decode(winner); isVenue {
				name := sug.Name
				var address *string
				if sug.Address != "" {
					addr := sug.Address
					address = &addr
				}
				if err := repo.UpdatePartyLocation(ctx, poll.PartyID, &name, address); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set party location")
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPollClosed,
			AggregateType: enums.AggregatePoll,
			AggregateID:   pollID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role.String()},
			Data:          pollEventPayload{PollID: pollID, PartyID: poll.PartyID, Question: poll.Question},
			Version:       1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit poll closed")
		}
		if s.notifier != nil && principal.UserID != party.HostID {
			if err := s.notifier.NotifyTx(ctx, tx, party.HostID, enums.NotificationTypePollClosed,
				"Poll closed", fmt.Sprintf("A poll in %s has closed", party.Title), nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify host")
			}
		}

		fresh, err := repo.GetPoll(ctx, pollID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload poll")
		}
		dto := pollToDTO(fresh)
		closed = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPollsClosed()
	return closed, nil
}

// Tally reports counts and percentages in the poll's original option
// order. Serialized suggestions group by exact string equality.
func (s *service) Tally(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*TallyResult, error) {
	poll, party, roster, err := s.loadPollContext(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanRead(principal, access.Resource{
		Kind:      access.KindPoll,
		PartyID:   party.ID,
		HostID:    party.HostID,
		CreatorID: poll.CreatedBy,
		Roster:    roster,
	})); err != nil {
		return nil, err
	}

	votes, err := s.repo.ListVotes(ctx, pollID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list votes")
	}
	entries, total := tallyVotes(poll.Options, votes)
	return &TallyResult{
		PollID:     poll.ID,
		Status:     poll.Status,
		TotalVotes: total,
		Entries:    entries,
	}, nil
}

func (s *service) loadPollContext(ctx context.Context, pollID uuid.UUID) (*models.Poll, *models.Party, []uuid.UUID, error) {
	if pollID == uuid.Nil {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "poll id required")
	}
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "poll not found")
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load poll")
	}
	party, err := s.repo.GetParty(ctx, poll.PartyID)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
	}
	roster, err := s.roster.Roster(ctx, poll.PartyID)
	if err != nil {
		return nil, nil, nil, err
	}
	return poll, party, roster, nil
}

func containsOption(options []string, option string) bool {
	for _, opt := range options {
		if opt == option {
			return true
		}
	}
	return false
}

func inRoster(userID uuid.UUID, roster []uuid.UUID) bool {
	for _, id := range roster {
		if id == userID {
			return true
		}
	}
	return false
}

type pollEventPayload struct {
	PollID   uuid.UUID `json:"pollId"`
	PartyID  uuid.UUID `json:"partyId"`
	Question string    `json:"question"`
}

type voteEventPayload struct {
	PollID  uuid.UUID `json:"pollId"`
	PartyID uuid.UUID `json:"partyId"`
	UserID  uuid.UUID `json:"userId"`
}
