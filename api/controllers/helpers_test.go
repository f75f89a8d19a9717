package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/00goop/lets-link/api/middleware"
	"github.com/00goop/lets-link/pkg/enums"
	"github.com/00goop/lets-link/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.RouteContext(req.Context())
	if routeCtx == nil {
		routeCtx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	routeCtx.URLParams.Add(key, value)
	return req
}

func authenticate(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestPrincipalFromRequestMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/parties", nil)
	if _, err := principalFromRequest(req); err == nil {
		t.Fatal("expected error for unauthenticated request")
	}
}

func TestPrincipalFromRequestDefaultsRole(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/parties", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	principal, err := principalFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.UserID != userID {
		t.Fatalf("unexpected user %s", principal.UserID)
	}
	if principal.Role != enums.UserRoleMember {
		t.Fatalf("unexpected role %s", principal.Role)
	}
}
