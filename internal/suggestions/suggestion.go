package suggestions

import (
	"encoding/json"
	"strings"

	"github.com/00goop/lets-link/pkg/enums"
	"github.com/00goop/lets-link/pkg/geo"
)

// Suggestion is a transient venue candidate. It is never persisted as a
// row; it only becomes durable when serialized into a poll option.
type Suggestion struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Address       string          `json:"address,omitempty"`
	Rating        float64         `json:"rating"`
	PriceTier     enums.PriceTier `json:"priceTier,omitempty"`
	Coordinate    *geo.Coordinate `json:"coordinate,omitempty"`
	DistanceMiles *float64        `json:"distanceMiles,omitempty"`
}

// Encode serializes a suggestion into the string form poll options carry.
func (s Suggestion) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode attempts to read a poll option back as a suggestion. Options are
// plain text unless they round-trip as a JSON object with a name, so a
// false return just means "free-form option".
func Decode(option string) (*Suggestion, bool) {
	trimmed := strings.TrimSpace(option)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var s Suggestion
	if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
		return nil, false
	}
	if s.Name == "" {
		return nil, false
	}
	return &s, true
}
