package suggestions

import (
	"github.com/00goop/lets-link/pkg/enums"
	"github.com/00goop/lets-link/pkg/geo"
)

// searchTerms maps a party category to the ordered queries tried against
// the live place search. The first term returning results wins.
var searchTerms = map[enums.PartyCategory][]string{
	enums.PartyCategoryRecreational:   {"park", "playground", "recreation center"},
	enums.PartyCategoryDining:         {"restaurant", "brunch", "food hall"},
	enums.PartyCategoryFamilyVacation: {"family attraction", "zoo", "aquarium"},
	enums.PartyCategoryEntertainment:  {"concert venue", "arcade", "theater"},
	enums.PartyCategoryShopping:       {"mall", "boutique", "shopping"},
	enums.PartyCategoryEducational:    {"museum", "science center", "library"},
}

var defaultSearchTerms = []string{"meetup spot", "community space"}

func termsFor(category enums.PartyCategory) []string {
	if terms, ok := searchTerms[category]; ok {
		return terms
	}
	return defaultSearchTerms
}

type fallbackTemplate struct {
	name        string
	address     string
	description string
}

// fallbackTemplates backs the offline generator. Picked as index mod len,
// so output is a pure function of the inputs.
var fallbackTemplates = map[enums.PartyCategory][]fallbackTemplate{
	enums.PartyCategoryRecreational: {
		{"Riverside Adventure Park", "Central plaza", "Perfect for outdoor activities and games"},
		{"Urban Gaming Lounge", "Warehouse district", "Indoor gaming and entertainment hub"},
		{"Community Sports Complex", "Midtown center", "Multiple sports facilities available"},
	},
	enums.PartyCategoryDining: {
		{"The Gathering Table", "Food district", "Great for groups with diverse menu options"},
		{"Skyline Bistro", "High-rise view", "Upscale dining with amazing views"},
		{"Family Style Kitchen", "Central square", "Casual dining perfect for large groups"},
	},
	enums.PartyCategoryFamilyVacation: {
		{"Lakeside Resort & Spa", "Waterfront promenade", "Family-friendly with activities for all ages"},
		{"Mountain View Lodge", "Ridgeline trailhead", "Scenic location with hiking trails"},
		{"Beach Front Hotel", "Coastal boardwalk", "Ocean activities and family entertainment"},
	},
	enums.PartyCategoryEntertainment: {
		{"Grand Cinema Complex", "Entertainment district", "Latest movies and IMAX screens"},
		{"Live Music Venue", "Arts quarter", "Great acoustics and vibrant atmosphere"},
		{"Comedy & Theater Club", "Downtown row", "Perfect for a fun night out"},
	},
	enums.PartyCategoryShopping: {
		{"Plaza Shopping Center", "Retail promenade", "Over 200 stores and restaurants"},
		{"Artisan Market Square", "Old town", "Unique boutiques and local crafts"},
		{"Mega Market Hall", "Transit hub", "All major brands under one roof"},
	},
	enums.PartyCategoryEducational: {
		{"Science & Discovery Museum", "Museum district", "Interactive exhibits and workshops"},
		{"Public Library Commons", "City center", "Quiet study spaces and resources"},
		{"University Conference Hall", "Campus area", "Professional learning environment"},
	},
}

func templatesFor(category enums.PartyCategory) []fallbackTemplate {
	if templates, ok := fallbackTemplates[category]; ok {
		return templates
	}
	return fallbackTemplates[enums.PartyCategoryRecreational]
}

// fallbackOffsets are fixed per-index coordinate deltas from the midpoint,
// cycled index mod len.
var fallbackOffsets = []geo.Coordinate{
	{Lat: 0, Lng: 0},
	{Lat: 0.003, Lng: 0.001},
	{Lat: -0.002, Lng: 0.002},
	{Lat: 0.001, Lng: -0.003},
}
