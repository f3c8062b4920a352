package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable weights and thresholds used by the analytics
// packages. It is read from a YAML file so leagues can adjust it without a
// rebuild.
type Policy struct {
	Valuation   ValuationPolicy  `yaml:"valuation"`
	Trade       TradePolicy      `yaml:"trade"`
	Suggestions SuggestionPolicy `yaml:"suggestions"`
}

type ValuationPolicy struct {
	SeasonWeight     float64 `yaml:"season_weight"`
	RecentWeight     float64 `yaml:"recent_weight"`
	ProjectedWeight  float64 `yaml:"projected_weight"`
	RecentWindow     int     `yaml:"recent_window"`
	ScarcityBonus    float64 `yaml:"scarcity_bonus"`
	ScarcityDepthCap int     `yaml:"scarcity_depth_cap"`
}

// TradePolicy holds fairness thresholds on the 0-100 scale.
type TradePolicy struct {
	LopsidedBelow float64 `yaml:"lopsided_below"`
	FavorsBelow   float64 `yaml:"favors_below"`
	EvenAtLeast   float64 `yaml:"even_at_least"`
}

type SuggestionPolicy struct {
	LineupMinGain float64 `yaml:"lineup_min_gain"`
	PickupMinGain float64 `yaml:"pickup_min_gain"`
	DropMargin    float64 `yaml:"drop_margin"`
	SurplusExtra  int     `yaml:"surplus_extra"`
	HighGain      float64 `yaml:"high_gain"`
	MediumGain    float64 `yaml:"medium_gain"`
}

const (
	DefaultSeasonWeight     = 0.3
	DefaultRecentWeight     = 0.3
	DefaultProjectedWeight  = 0.4
	DefaultRecentWindow     = 3
	DefaultScarcityBonus    = 0.25
	DefaultScarcityDepthCap = 10

	DefaultLopsidedBelow = 40.0
	DefaultFavorsBelow   = 70.0
	DefaultEvenAtLeast   = 90.0

	DefaultLineupMinGain = 1.0
	DefaultPickupMinGain = 1.5
	DefaultDropMargin    = 1.0
	DefaultSurplusExtra  = 1
	DefaultHighGain      = 5.0
	DefaultMediumGain    = 2.0
)

func DefaultPolicy() Policy {
	return Policy{
		Valuation: ValuationPolicy{
			SeasonWeight:     DefaultSeasonWeight,
			RecentWeight:     DefaultRecentWeight,
			ProjectedWeight:  DefaultProjectedWeight,
			RecentWindow:     DefaultRecentWindow,
			ScarcityBonus:    DefaultScarcityBonus,
			ScarcityDepthCap: DefaultScarcityDepthCap,
		},
		Trade: TradePolicy{
			LopsidedBelow: DefaultLopsidedBelow,
			FavorsBelow:   DefaultFavorsBelow,
			EvenAtLeast:   DefaultEvenAtLeast,
		},
		Suggestions: SuggestionPolicy{
			LineupMinGain: DefaultLineupMinGain,
			PickupMinGain: DefaultPickupMinGain,
			DropMargin:    DefaultDropMargin,
			SurplusExtra:  DefaultSurplusExtra,
			HighGain:      DefaultHighGain,
			MediumGain:    DefaultMediumGain,
		},
	}
}

// LoadPolicy reads a policy file, expanding environment variables. Keys
// missing from the file keep their default values. An empty path returns the
// defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("validate policy: %w", err)
	}
	return p, nil
}

func (p Policy) Validate() error {
	v := p.Valuation
	if v.SeasonWeight < 0 || v.RecentWeight < 0 || v.ProjectedWeight < 0 {
		return errors.New("valuation weights must be >= 0")
	}
	if v.SeasonWeight+v.RecentWeight+v.ProjectedWeight <= 0 {
		return errors.New("valuation weights must not all be zero")
	}
	if v.RecentWindow < 1 {
		return errors.New("valuation.recent_window must be >= 1")
	}
	if v.ScarcityBonus < 0 {
		return errors.New("valuation.scarcity_bonus must be >= 0")
	}
	if v.ScarcityDepthCap < 1 {
		return errors.New("valuation.scarcity_depth_cap must be >= 1")
	}

	t := p.Trade
	if !(0 <= t.LopsidedBelow && t.LopsidedBelow <= t.FavorsBelow && t.FavorsBelow <= t.EvenAtLeast && t.EvenAtLeast <= 100) {
		return fmt.Errorf("trade thresholds must satisfy 0 <= lopsided_below <= favors_below <= even_at_least <= 100, got %v/%v/%v",
			t.LopsidedBelow, t.FavorsBelow, t.EvenAtLeast)
	}

	s := p.Suggestions
	if s.LineupMinGain < 0 || s.PickupMinGain < 0 || s.DropMargin < 0 {
		return errors.New("suggestion gains must be >= 0")
	}
	if s.SurplusExtra < 1 {
		return errors.New("suggestions.surplus_extra must be >= 1")
	}
	if s.MediumGain > s.HighGain {
		return errors.New("suggestions.medium_gain must be <= high_gain")
	}
	return nil
}
