package controllers

import (
	"net/http"

	"github.com/00goop/lets-link/api/responses"
	"github.com/00goop/lets-link/api/validators"
	"github.com/00goop/lets-link/internal/polls"
	"github.com/00goop/lets-link/pkg/logger"
)

type createPollRequest struct {
	Question string   `json:"question" validate:"required,min=1,max=280"`
	Options  []string `json:"options" validate:"required,min=1,max=10,dive,required"`
}

// CreatePoll opens a poll on a party.
func CreatePoll(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partyID, err := pathUUID(r, "partyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPollRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poll, err := svc.Create(r.Context(), principal, partyID, req.Question, req.Options)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, poll)
	}
}

func GetPoll(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pollID, err := pathUUID(r, "pollID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poll, err := svc.Get(r.Context(), principal, pollID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poll)
	}
}

func ListPartyPolls(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partyID, err := pathUUID(r, "partyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByParty(r.Context(), principal, partyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type castVoteRequest struct {
	Option string `json:"option" validate:"required,min=1"`
}

// CastVote records or replaces the caller's vote on an open poll.
func CastVote(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pollID, err := pathUUID(r, "pollID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req castVoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CastVote(r.Context(), principal, pollID, req.Option); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"voted": true})
	}
}

// ClosePoll latches the poll closed and returns its final state.
func ClosePoll(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pollID, err := pathUUID(r, "pollID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poll, err := svc.Close(r.Context(), principal, pollID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poll)
	}
}

func GetTally(svc polls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pollID, err := pathUUID(r, "pollID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tally, err := svc.Tally(r.Context(), principal, pollID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tally)
	}
}
