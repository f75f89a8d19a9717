package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/00goop/lets-link/internal/access"
	"github.com/00goop/lets-link/internal/parties"
	"github.com/00goop/lets-link/pkg/config"
	"github.com/00goop/lets-link/pkg/enums"
	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/geo"
	"github.com/00goop/lets-link/pkg/logger"
	"github.com/00goop/lets-link/pkg/metrics"
	"github.com/00goop/lets-link/pkg/places"
)

const (
	searchAttemptTimeout = 5 * time.Second
	defaultLimit         = 5
)

type placeSearcher interface {
	SearchNearby(ctx context.Context, req places.NearbyRequest) ([]places.Place, error)
}

type suggestionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SuggestionCacheKey(parts ...string) string
}

type partySource interface {
	Get(ctx context.Context, principal access.Principal, partyID uuid.UUID) (*parties.PartyDTO, error)
}

type locationSource interface {
	MemberCoordinates(ctx context.Context, partyID uuid.UUID) ([]geo.Coordinate, error)
}

// Service produces ranked venue candidates around a party's midpoint. Live
// search results are preferred; when the upstream is down or empty the
// deterministic fallback generator takes over, so callers always get an
// answer.
type Service interface {
	SuggestForParty(ctx context.Context, principal access.Principal, partyID uuid.UUID, limit int) ([]Suggestion, error)
	Suggest(ctx context.Context, midpoint geo.Coordinate, category enums.PartyCategory, limit int) []Suggestion
}

type service struct {
	parties  partySource
	members  locationSource
	searcher placeSearcher
	cache    suggestionCache
	cfg      config.SuggestionsConfig
	log      *logger.Logger
	metrics  *metrics.AppMetrics
}

// NewService wires the suggestion provider. The searcher, cache, logger and
// metrics are all optional; a nil searcher runs fallback-only.
func NewService(partySvc partySource, members locationSource, searcher placeSearcher, cache suggestionCache, cfg config.SuggestionsConfig, log *logger.Logger, appMetrics *metrics.AppMetrics) (Service, error) {
	if partySvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "party source required")
	}
	if members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member location source required")
	}
	return &service{
		parties:  partySvc,
		members:  members,
		searcher: searcher,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		metrics:  appMetrics,
	}, nil
}

// SuggestForParty resolves the party's midpoint from member-reported
// coordinates, substituting the configured default when nobody has shared
// a location yet.
func (s *service) SuggestForParty(ctx context.Context, principal access.Principal, partyID uuid.UUID, limit int) ([]Suggestion, error) {
	if s.log != nil {
		ctx = s.log.WithPartyID(ctx, partyID.String())
	}
	party, err := s.parties.Get(ctx, principal, partyID)
	if err != nil {
		return nil, err
	}
	limit = s.normalizeLimit(limit)

	coords, err := s.members.MemberCoordinates(ctx, partyID)
	if err != nil {
		return nil, err
	}
	midpoint, ok := geo.Midpoint(coords)
	if !ok {
		midpoint = geo.Coordinate{Lat: s.cfg.DefaultLat, Lng: s.cfg.DefaultLng}
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.SuggestionCacheKey(partyID.String(), midpointKey(midpoint), string(party.Category))
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && raw != "" {
			var cached []Suggestion
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	list := s.Suggest(ctx, midpoint, party.Category, limit)

	if s.cache != nil && len(list) > 0 {
		if raw, err := json.Marshal(list); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(raw), s.cfg.CacheTTL); err != nil && s.log != nil {
				s.log.Warn(ctx, "suggestion cache write failed")
			}
		}
	}
	return list, nil
}

// Suggest tries each category search term in order against the live place
// search and falls back to the deterministic generator when every attempt
// fails or comes back empty. Transport failures are swallowed, never
// propagated.
func (s *service) Suggest(ctx context.Context, midpoint geo.Coordinate, category enums.PartyCategory, limit int) []Suggestion {
	limit = s.normalizeLimit(limit)

	if s.searcher != nil {
		started := time.Now()
		found, searchErr := s.searchLive(ctx, midpoint, category, limit)
		if searchErr != nil && s.log != nil {
			s.log.Error(ctx, "place search attempts failed", searchErr)
		}
		if len(found) > 0 {
			s.metrics.ObserveSearch(metrics.SourceLive, time.Since(started))
			s.metrics.IncSuggestions(metrics.SourceLive)
			return rankSuggestions(found, limit)
		}
		s.metrics.ObserveSearch(metrics.SourceFallback, time.Since(started))
	}

	s.metrics.IncSuggestions(metrics.SourceFallback)
	return rankSuggestions(generateFallback(midpoint, category, limit), limit)
}

func (s *service) searchLive(ctx context.Context, midpoint geo.Coordinate, category enums.PartyCategory, limit int) ([]Suggestion, error) {
	var errs error
	for _, term := range termsFor(category) {
		attemptCtx, cancel := context.WithTimeout(ctx, searchAttemptTimeout)
		results, err := s.searcher.SearchNearby(attemptCtx, places.NearbyRequest{
			Query:      term,
			Center:     midpoint,
			MaxResults: limit,
		})
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("term %q: %w", term, err))
			continue
		}
		if len(results) == 0 {
			continue
		}

		out := make([]Suggestion, 0, len(results))
		for _, p := range results {
			distance := round1(geo.DistanceMiles(midpoint, p.Location))
			loc := p.Location
			out = append(out, Suggestion{
				Name:          p.Name,
				Address:       p.Address,
				Rating:        p.Rating,
				PriceTier:     enums.PriceTier(p.Price),
				Coordinate:    &loc,
				DistanceMiles: &distance,
			})
		}
		return out, errs
	}
	return nil, errs
}

// generateFallback is a pure function of (midpoint, category, limit,
// index): template index mod N, offset index mod len(offsets), distance by
// haversine to the offset point.
func generateFallback(midpoint geo.Coordinate, category enums.PartyCategory, limit int) []Suggestion {
	templates := templatesFor(category)
	out := make([]Suggestion, 0, limit)
	for i := 0; i < limit; i++ {
		template := templates[i%len(templates)]
		offset := fallbackOffsets[i%len(fallbackOffsets)]
		coord := geo.Coordinate{Lat: midpoint.Lat + offset.Lat, Lng: midpoint.Lng + offset.Lng}
		distance := round1(geo.DistanceMiles(midpoint, coord))
		out = append(out, Suggestion{
			Name:          template.name,
			Description:   template.description,
			Address:       template.address,
			Coordinate:    &coord,
			DistanceMiles: &distance,
		})
	}
	return out
}

// rankSuggestions sorts by rating descending, ties broken by ascending
// distance, and truncates to limit.
func rankSuggestions(list []Suggestion, limit int) []Suggestion {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Rating != list[j].Rating {
			return list[i].Rating > list[j].Rating
		}
		return distanceOf(list[i]) < distanceOf(list[j])
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func distanceOf(s Suggestion) float64 {
	if s.DistanceMiles == nil {
		return math.MaxFloat64
	}
	return *s.DistanceMiles
}

func (s *service) normalizeLimit(limit int) int {
	max := s.cfg.MaxLimit
	if max <= 0 {
		max = defaultLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > max {
		limit = max
	}
	return limit
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func midpointKey(c geo.Coordinate) string {
	return fmt.Sprintf("%.3f,%.3f", c.Lat, c.Lng)
}
