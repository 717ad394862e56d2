package config

import (
	"reuseit/internal/pickup"
	"reuseit/locationsearch/search"
)

// Seed is reference data loaded at startup: the pickup point directory and
// the gazetteer behind address suggestions.
type Seed struct {
	PickupPoints []pickup.Point      `yaml:"pickup_points"`
	Places       []search.Completion `yaml:"places"`
}
