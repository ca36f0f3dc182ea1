package retention

import (
	"errors"
	"fmt"
)

const (
	// DefaultDailyBoundary is the age in days below which every archive is kept.
	DefaultDailyBoundary = 90
	// DefaultWeeklyBoundary is the age in days below which one archive per ISO week is kept.
	DefaultWeeklyBoundary = 365
)

// ErrInvalidPolicy is matched by every policy validation error.
var ErrInvalidPolicy = errors.New("invalid retention policy")

// ConfigError describes why a Policy was rejected.
type ConfigError struct {
	Daily  int
	Weekly int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("retention: daily boundary %d, weekly boundary %d: %s", e.Daily, e.Weekly, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidPolicy }

// Policy holds the tier boundaries, in days of age.
type Policy struct {
	DailyBoundary  int `yaml:"dailyBoundary"`
	WeeklyBoundary int `yaml:"weeklyBoundary"`
}

// DefaultPolicy returns the 90/365 policy.
func DefaultPolicy() Policy {
	return Policy{
		DailyBoundary:  DefaultDailyBoundary,
		WeeklyBoundary: DefaultWeeklyBoundary,
	}
}

// Validate requires 0 <= daily < weekly. Values are never clamped.
func (p Policy) Validate() error {
	switch {
	case p.DailyBoundary < 0 || p.WeeklyBoundary < 0:
		return &ConfigError{Daily: p.DailyBoundary, Weekly: p.WeeklyBoundary, Reason: "boundaries must not be negative"}
	case p.DailyBoundary >= p.WeeklyBoundary:
		return &ConfigError{Daily: p.DailyBoundary, Weekly: p.WeeklyBoundary, Reason: "daily boundary must be below weekly boundary"}
	}
	return nil
}
