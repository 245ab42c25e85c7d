package optimizer

import "time"

// Config holds the search settings for the sourcing optimizer.
// It is loaded from the optimizer section of the service config.
type Config struct {
	// Unstocked product handling: "reject" or "drop"
	UnstockedPolicy Policy `mapstructure:"unstocked_policy" env:"UNSTOCKED_POLICY" default:"reject"`

	// Search bounds
	MaxAssignments  int           `mapstructure:"max_assignments" env:"MAX_ASSIGNMENTS" default:"100000"`
	MaxRouteCenters int           `mapstructure:"max_route_centers" env:"MAX_ROUTE_CENTERS" default:"8"`
	SearchTimeout   time.Duration `mapstructure:"search_timeout" env:"SEARCH_TIMEOUT" default:"2s"`

	// Validation limits
	MaxOrderLines int `mapstructure:"max_order_lines" env:"MAX_ORDER_LINES" default:"100"`

	// Parallel evaluation of assignments
	Parallelism       int `mapstructure:"parallelism" env:"PARALLELISM" default:"4"`
	ParallelThreshold int `mapstructure:"parallel_threshold" env:"PARALLEL_THRESHOLD" default:"64"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		UnstockedPolicy:   PolicyReject,
		MaxAssignments:    100000,
		MaxRouteCenters:   8,
		SearchTimeout:     2 * time.Second,
		MaxOrderLines:     100,
		Parallelism:       4,
		ParallelThreshold: 64,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.UnstockedPolicy != PolicyReject && c.UnstockedPolicy != PolicyDrop {
		return ErrInvalidConfig{Field: "unstocked_policy", Reason: "must be reject or drop"}
	}
	if c.MaxAssignments < 1 {
		return ErrInvalidConfig{Field: "max_assignments", Reason: "must be at least 1"}
	}
	// 10! routes per assignment is already beyond any sensible deadline
	if c.MaxRouteCenters < 1 || c.MaxRouteCenters > 10 {
		return ErrInvalidConfig{Field: "max_route_centers", Reason: "must be between 1 and 10"}
	}
	if c.SearchTimeout <= 0 {
		return ErrInvalidConfig{Field: "search_timeout", Reason: "must be positive"}
	}
	if c.MaxOrderLines < 1 {
		return ErrInvalidConfig{Field: "max_order_lines", Reason: "must be at least 1"}
	}
	if c.Parallelism < 1 {
		return ErrInvalidConfig{Field: "parallelism", Reason: "must be at least 1"}
	}
	if c.ParallelThreshold < 0 {
		return ErrInvalidConfig{Field: "parallel_threshold", Reason: "must be non-negative"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
