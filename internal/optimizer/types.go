package optimizer

import (
	"errors"
	"fmt"
	"time"
)

// Order maps a product code to the requested quantity. Entries with a
// quantity of zero or less are ignored.
type Order map[string]int

// Assignment maps each required product to the center that supplies it.
type Assignment map[string]string

// Route is a duplicate-free visiting order over centers.
type Route []string

// Outcome classifies a quote.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"            // every requested product is priced
	OutcomePartial       Outcome = "partial"       // unstocked products were dropped
	OutcomeUnsatisfiable Outcome = "unsatisfiable" // nothing could be priced, cost is 0
)

// Policy decides what happens to products that no center stocks.
type Policy string

const (
	// PolicyReject fails the whole order when any product is unstocked.
	PolicyReject Policy = "reject"
	// PolicyDrop prices the remaining products and reports the dropped ones.
	PolicyDrop Policy = "drop"
)

// Reasons attached to an unsatisfiable outcome.
const (
	ReasonUnstocked = "unstocked"
	ReasonNoRoute   = "no_route"
)

// Result is the outcome of one quote.
type Result struct {
	MinimumCost int64   `json:"minimum_cost"` // RawCost rounded half to even, 0 when unsatisfiable
	RawCost     float64 `json:"raw_cost"`     // unrounded minimum
	Outcome     Outcome `json:"outcome"`
	Reason      string  `json:"reason,omitempty"` // set for OutcomeUnsatisfiable
	Model       string  `json:"model"`

	Assignment Assignment `json:"assignment,omitempty"` // winning product -> center choice
	Route      Route      `json:"route,omitempty"`      // winning visiting order
	Unstocked  []string   `json:"unstocked,omitempty"`  // products no center stocks, sorted
	Dropped    []string   `json:"dropped,omitempty"`    // products removed under PolicyDrop, sorted

	AssignmentsEvaluated int           `json:"assignments_evaluated"`
	RoutesEvaluated      int           `json:"routes_evaluated"`
	Duration             time.Duration `json:"duration_ns"`
}

var (
	// ErrSearchTooLarge is returned when an order would need more assignments
	// or touch more centers than the configured bounds allow.
	ErrSearchTooLarge = errors.New("search space exceeds configured limits")

	// ErrSearchTimeout is returned when the search does not finish before the deadline.
	ErrSearchTimeout = errors.New("search timed out")
)

// ErrInvalidOrder is returned when an order cannot be quoted as given.
type ErrInvalidOrder struct {
	Field  string
	Reason string
}

func (e ErrInvalidOrder) Error() string {
	return fmt.Sprintf("invalid order: %s: %s", e.Field, e.Reason)
}
