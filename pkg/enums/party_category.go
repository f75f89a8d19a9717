package enums

import "fmt"

// PartyCategory classifies the kind of outing a party is planning.
type PartyCategory string

const (
	PartyCategoryRecreational   PartyCategory = "recreational"
	PartyCategoryDining         PartyCategory = "dining"
	PartyCategoryFamilyVacation PartyCategory = "family_vacation"
	PartyCategoryEntertainment  PartyCategory = "entertainment"
	PartyCategoryShopping       PartyCategory = "shopping"
	PartyCategoryEducational    PartyCategory = "educational"
)

var validPartyCategories = []PartyCategory{
	PartyCategoryRecreational,
	PartyCategoryDining,
	PartyCategoryFamilyVacation,
	PartyCategoryEntertainment,
	PartyCategoryShopping,
	PartyCategoryEducational,
}

// String implements fmt.Stringer.
func (p PartyCategory) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PartyCategory.
func (p PartyCategory) IsValid() bool {
	for _, candidate := range validPartyCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartyCategory converts raw input into a PartyCategory.
func ParsePartyCategory(value string) (PartyCategory, error) {
	for _, candidate := range validPartyCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party category %q", value)
}
