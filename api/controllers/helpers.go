package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/00goop/lets-link/api/middleware"
	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
)

func principalFromRequest(r *http.Request) (access.Principal, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return access.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return access.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role := enums.UserRole(middleware.RoleFromContext(r.Context()))
	if role == "" {
		role = enums.UserRoleMember
	}
	return access.Principal{UserID: userID, Role: role}, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
