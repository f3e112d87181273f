package utils

import (
	"time"
)

// Recommendation sizing
const (
	// RankedDestinationsLimit caps a member's stored ranking
	RankedDestinationsLimit = 25

	// ConsensusLimit caps the plan's consensus set
	ConsensusLimit = 10

	// PodiumSize is the number of winners reported
	PodiumSize = 3
)

// Plan constants
const (
	// PlanCodeLength is the length of the shareable plan code
	PlanCodeLength = 6

	// PlanCodeMaxAttempts bounds retries on plan code collisions
	PlanCodeMaxAttempts = 5

	// DateLayout is the accepted trip date format
	DateLayout = "2006-01-02"

	// FareCurrency is the currency requested from the fare provider
	FareCurrency = "EUR"
)

// Redis keys, prefixed with CacheConfig.RedisPrefix
const (
	SuggestionLockKeyPrefix = "plan:suggestions:lock:"
	PhotoCacheKeyPrefix     = "photo:"

	SuggestionLockTTL = 30 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
