package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/api/responses"
	"github.com/00goop/lets-link/api/validators"
	"github.com/00goop/lets-link/internal/friends"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/logger"
)

type friendRequestBody struct {
	FriendUserID uuid.UUID `json:"friend_user_id" validate:"required"`
}

// RequestFriend creates a pending friendship edge.
func RequestFriend(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req friendRequestBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		friend, err := svc.Request(r.Context(), principal, req.FriendUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, friend)
	}
}

// AcceptFriend flips a pending friendship to accepted.
func AcceptFriend(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		friendshipID, err := pathUUID(r, "friendshipID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		friend, err := svc.Accept(r.Context(), principal, friendshipID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, friend)
	}
}

func RemoveFriend(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		friendshipID, err := pathUUID(r, "friendshipID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), principal, friendshipID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

func ListFriends(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.FriendStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			candidate := enums.FriendStatus(raw)
			if !candidate.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid friend status filter"))
				return
			}
			status = &candidate
		}

		list, err := svc.List(r.Context(), principal, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
