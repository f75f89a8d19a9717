package enums

// PriceTier is the coarse venue price bucket shown on suggestions.
type PriceTier string

const (
	PriceTierBudget   PriceTier = "$"
	PriceTierModerate PriceTier = "$$"
	PriceTierUpscale  PriceTier = "$$$"
)

// String implements fmt.Stringer.
func (p PriceTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceTier.
func (p PriceTier) IsValid() bool {
	switch p {
	case PriceTierBudget, PriceTierModerate, PriceTierUpscale:
		return true
	}
	return false
}
