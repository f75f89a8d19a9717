package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/internal/polls"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
)

type testPollsService struct {
	createFn func(ctx context.Context, principal access.Principal, partyID uuid.UUID, question string, options []string) (*polls.PollDTO, error)
	castFn   func(ctx context.Context, principal access.Principal, pollID uuid.UUID, option string) error
	closeFn  func(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*polls.PollDTO, error)
	tallyFn  func(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*polls.TallyResult, error)
}

func (s *testPollsService) Create(ctx context.Context, principal access.Principal, partyID uuid.UUID, question string, options []string) (*polls.PollDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, principal, partyID, question, options)
	}
	return &polls.PollDTO{}, nil
}

func (s *testPollsService) Get(context.Context, access.Principal, uuid.UUID) (*polls.PollDTO, error) {
	return &polls.PollDTO{}, nil
}

func (s *testPollsService) ListByParty(context.Context, access.Principal, uuid.UUID) ([]polls.PollDTO, error) {
	return nil, nil
}

func (s *testPollsService) CastVote(ctx context.Context, principal access.Principal, pollID uuid.UUID, option string) error {
	if s.castFn != nil {
		return s.castFn(ctx, principal, pollID, option)
	}
	return nil
}

func (s *testPollsService) Close(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*polls.PollDTO, error) {
	if s.closeFn != nil {
		return s.closeFn(ctx, principal, pollID)
	}
	return &polls.PollDTO{}, nil
}

func (s *testPollsService) Tally(ctx context.Context, principal access.Principal, pollID uuid.UUID) (*polls.TallyResult, error) {
	if s.tallyFn != nil {
		return s.tallyFn(ctx, principal, pollID)
	}
	return &polls.TallyResult{}, nil
}

func TestCreatePollSuccess(t *testing.T) {
	userID := uuid.New()
	partyID := uuid.New()
	var gotQuestion string
	var gotOptions []string
	svc := &testPollsService{
		createFn: func(_ context.Context, principal access.Principal, pid uuid.UUID, question string, options []string) (*polls.PollDTO, error) {
			if principal.UserID != userID {
				t.Fatalf("unexpected principal %s", principal.UserID)
			}
			if pid != partyID {
				t.Fatalf("unexpected party %s", pid)
			}
			gotQuestion = question
			gotOptions = options
			return &polls.PollDTO{ID: uuid.New(), PartyID: pid, Question: question}, nil
		},
	}

	body := `{"question":"Where to?","options":["Park","Museum"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parties/"+partyID.String()+"/polls", strings.NewReader(body))
	req = authenticate(req, userID, "member")
	req = addRouteParam(req, "partyID", partyID.String())

	resp := httptest.NewRecorder()
	CreatePoll(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotQuestion != "Where to?" {
		t.Fatalf("unexpected question %q", gotQuestion)
	}
	if len(gotOptions) != 2 || gotOptions[0] != "Park" {
		t.Fatalf("unexpected options %v", gotOptions)
	}
}

func TestCreatePollAcceptsSingleOption(t *testing.T) {
	var gotOptions []string
	svc := &testPollsService{
		createFn: func(_ context.Context, _ access.Principal, pid uuid.UUID, question string, options []string) (*polls.PollDTO, error) {
			gotOptions = options
			return &polls.PollDTO{ID: uuid.New(), PartyID: pid, Question: question}, nil
		},
	}

	body := `{"question":"Where?","options":["Park"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parties/"+uuid.NewString()+"/polls", strings.NewReader(body))
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "partyID", uuid.NewString())

	resp := httptest.NewRecorder()
	CreatePoll(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(gotOptions) != 1 || gotOptions[0] != "Park" {
		t.Fatalf("unexpected options %v", gotOptions)
	}
}

func TestCreatePollRejectsEmptyOptions(t *testing.T) {
	body := `{"question":"Where?","options":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parties/"+uuid.NewString()+"/polls", strings.NewReader(body))
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "partyID", uuid.NewString())

	resp := httptest.NewRecorder()
	CreatePoll(&testPollsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreatePollUnauthenticated(t *testing.T) {
	body := `{"question":"Where?","options":["Park","Zoo"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parties/"+uuid.NewString()+"/polls", strings.NewReader(body))
	req = addRouteParam(req, "partyID", uuid.NewString())

	resp := httptest.NewRecorder()
	CreatePoll(&testPollsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCastVoteSuccess(t *testing.T) {
	pollID := uuid.New()
	var gotOption string
	svc := &testPollsService{
		castFn: func(_ context.Context, _ access.Principal, pid uuid.UUID, option string) error {
			if pid != pollID {
				t.Fatalf("unexpected poll %s", pid)
			}
			gotOption = option
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/"+pollID.String()+"/votes", strings.NewReader(`{"option":"Park"}`))
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "pollID", pollID.String())

	resp := httptest.NewRecorder()
	CastVote(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotOption != "Park" {
		t.Fatalf("unexpected option %q", gotOption)
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data["voted"] {
		t.Fatal("response missing voted flag")
	}
}

func TestCastVoteClosedPollMapsToConflict(t *testing.T) {
	svc := &testPollsService{
		castFn: func(context.Context, access.Principal, uuid.UUID, string) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "poll is closed")
		},
	}

	pollID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/"+pollID.String()+"/votes", strings.NewReader(`{"option":"Park"}`))
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "pollID", pollID.String())

	resp := httptest.NewRecorder()
	CastVote(svc, testLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCastVoteInvalidPollID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/nope/votes", strings.NewReader(`{"option":"Park"}`))
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "pollID", "nope")

	resp := httptest.NewRecorder()
	CastVote(&testPollsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestClosePollForbiddenForMembers(t *testing.T) {
	svc := &testPollsService{
		closeFn: func(context.Context, access.Principal, uuid.UUID) (*polls.PollDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the host or poll creator may close a poll")
		},
	}

	pollID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls/"+pollID.String()+"/close", nil)
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "pollID", pollID.String())

	resp := httptest.NewRecorder()
	ClosePoll(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestGetTallyReturnsEntries(t *testing.T) {
	pollID := uuid.New()
	svc := &testPollsService{
		tallyFn: func(context.Context, access.Principal, uuid.UUID) (*polls.TallyResult, error) {
			return &polls.TallyResult{
				PollID:     pollID,
				TotalVotes: 3,
				Entries: []polls.TallyEntry{
					{Option: "Park", Count: 2},
					{Option: "Zoo", Count: 1},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/polls/"+pollID.String()+"/tally", nil)
	req = authenticate(req, uuid.New(), "member")
	req = addRouteParam(req, "pollID", pollID.String())

	resp := httptest.NewRecorder()
	GetTally(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data polls.TallyResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalVotes != 3 || len(envelope.Data.Entries) != 2 {
		t.Fatalf("unexpected tally %+v", envelope.Data)
	}
}
