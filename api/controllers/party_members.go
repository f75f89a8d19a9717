package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/api/responses"
	"github.com/00goop/lets-link/api/validators"
	"github.com/00goop/lets-link/internal/memberships"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/geo"
	"github.com/00goop/lets-link/pkg/logger"
)

type joinPartyRequest struct {
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed declined"`
	Lat          *float64   `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng          *float64   `json:"lng,omitempty" validate:"omitempty,longitude"`
	LocationName *string    `json:"location_name,omitempty"`
}

// JoinParty adds the caller (or an invitee, for hosts) to the roster.
func JoinParty(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req joinPartyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := memberships.JoinParams{LocationName: req.LocationName}
		if req.UserID != nil {
			params.UserID = *req.UserID
		}
		if req.Status != nil {
			params.Status = enums.MembershipStatus(*req.Status)
		}
		coordinate, err := coordinateFromRequest(req.Lat, req.Lng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Coordinate = coordinate

		roster, err := svc.Join(r.Context(), principal, partyID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, roster)
	}
}

func LeaveParty(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Leave(r.Context(), principal, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"left": true})
	}
}

type updateMemberRequest struct {
	Status       *string  `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed declined"`
	Lat          *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng          *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	LocationName *string  `json:"location_name,omitempty"`
}

// UpdateMember changes a membership's status or reported location.
func UpdateMember(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateMemberRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := memberships.UpdateParams{LocationName: req.LocationName}
		if req.Status != nil {
			status := enums.MembershipStatus(*req.Status)
			params.Status = &status
		}
		coordinate, err := coordinateFromRequest(req.Lat, req.Lng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Coordinate = coordinate

		member, err := svc.Update(r.Context(), principal, memberID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func ListMembers(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
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

		members, err := svc.Members(r.Context(), principal, partyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

func coordinateFromRequest(lat, lng *float64) (*geo.Coordinate, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	coordinate := geo.Coordinate{Lat: *lat, Lng: *lng}
	if err := coordinate.Validate(); err != nil {
		return nil, err
	}
	return &coordinate, nil
}
