// internal/model/tier.go
package model

import (
	"fmt"
	"strings"
)

// Tier is the upstream access level of a caller. Higher tiers include the
// capabilities of the lower ones.
type Tier int

const (
	TierBasic Tier = iota
	TierMedium
	TierAdvanced
)

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "BASIC"
	case TierMedium:
		return "MEDIUM"
	case TierAdvanced:
		return "ADVANCED"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// ParseTier accepts the names produced by String, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "BASIC":
		return TierBasic, nil
	case "MEDIUM":
		return TierMedium, nil
	case "ADVANCED":
		return TierAdvanced, nil
	default:
		return TierBasic, fmt.Errorf("unknown access tier %q", s)
	}
}
