package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/00goop/lets-link/pkg/errors"
	"github.com/00goop/lets-link/pkg/geo"
)

const (
	defaultBaseURL             = "https://places.googleapis.com/v1"
	searchFieldMask            = "places.displayName,places.formattedAddress,places.rating,places.priceLevel,places.location"
	responseBodyReadLimit      = 1024
	defaultTimeout             = 5 * time.Second
	// DefaultBoxMargin is the half-width in degrees of the search rectangle
	// drawn around the midpoint.
	DefaultBoxMargin = 0.02
)

var errAPIKeyRequired = errors.New("places api key is required")

// Client wraps the nearby-place search API used for venue suggestions.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured search base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the place search client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// NearbyRequest bounds a text search to a rectangle around a center point.
type NearbyRequest struct {
	Query      string
	Center     geo.Coordinate
	BoxMargin  float64
	MaxResults int
}

// Place is the normalized venue record returned by the search API.
type Place struct {
	Name     string
	Address  string
	Rating   float64
	Price    string
	Location geo.Coordinate
}

// SearchNearby queries places matching the term inside the bounding box.
// All failures come back as CodeDependency so callers can treat them as an
// unavailable upstream rather than a caller error.
func (c *Client) SearchNearby(ctx context.Context, req NearbyRequest) ([]Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "place search client not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if err := req.Center.Validate(); err != nil {
		return nil, err
	}

	margin := req.BoxMargin
	if margin <= 0 {
		margin = DefaultBoxMargin
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	payload, err := json.Marshal(searchRequest{
		TextQuery:    req.Query,
		MaxResults:   maxResults,
		LocationBias: rectangleAround(req.Center, margin),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal place search request")
	}

	url := fmt.Sprintf("%s/places:searchText", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build place search request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute place search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "place search request failed")
	}

	var apiResp struct {
		Places []struct {
			DisplayName struct {
				Text string `json:"text"`
			} `json:"displayName"`
			FormattedAddress string  `json:"formattedAddress"`
			Rating           float64 `json:"rating"`
			PriceLevel       string  `json:"priceLevel"`
			Location         struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"location"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode place search response")
	}

	places := make([]Place, 0, len(apiResp.Places))
	for _, p := range apiResp.Places {
		places = append(places, Place{
			Name:    p.DisplayName.Text,
			Address: p.FormattedAddress,
			Rating:  p.Rating,
			Price:   priceFromLevel(p.PriceLevel),
			Location: geo.Coordinate{
				Lat: p.Location.Latitude,
				Lng: p.Location.Longitude,
			},
		})
	}

	return places, nil
}

type searchRequest struct {
	TextQuery    string    `json:"textQuery"`
	MaxResults   int       `json:"maxResultCount,omitempty"`
	LocationBias rectangle `json:"locationBias"`
}

type rectangle struct {
	Rectangle struct {
		Low  latLng `json:"low"`
		High latLng `json:"high"`
	} `json:"rectangle"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func rectangleAround(center geo.Coordinate, margin float64) rectangle {
	var r rectangle
	r.Rectangle.Low = latLng{Latitude: center.Lat - margin, Longitude: center.Lng - margin}
	r.Rectangle.High = latLng{Latitude: center.Lat + margin, Longitude: center.Lng + margin}
	return r
}

func priceFromLevel(level string) string {
	switch level {
	case "PRICE_LEVEL_INEXPENSIVE":
		return "$"
	case "PRICE_LEVEL_MODERATE":
		return "$$"
	case "PRICE_LEVEL_EXPENSIVE", "PRICE_LEVEL_VERY_EXPENSIVE":
		return "$$$"
	default:
		return ""
	}
}
