package reorder

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// HandlerMode selects which stuck-point handler the Search Driver
// dispatches to when the Option Prober exhausts a frame: the Dependency
// Learner (default) or the experimental LTL oracle path. Only one is
// active per search, matching the "alternative strategies chosen at
// construction" design note.
type HandlerMode int

const (
	// HandlerLearner dispatches stuck points to the Dependency
	// Learner (§4.D). This is the default handler.
	HandlerLearner HandlerMode = iota

	// HandlerLTL dispatches stuck points to the LTL Constraint
	// Builder & Oracle Client (§4.E).
	HandlerLTL
)

func (h HandlerMode) String() string {
	switch h {
	case HandlerLearner:
		return "learner"
	case HandlerLTL:
		return "ltl"
	default:
		return "unknown"
	}
}

// Config assembles every tunable the Search Driver, Dependency Learner,
// and Oracle Client need: the wall-clock budget, the subordinate-solve
// fan-out factor, the handler selection, the oracle executable path, an
// injectable random source, and a structured logger.
type Config struct {
	// Budget is the absolute wall-clock deadline for the whole search,
	// computed from construction time. Zero means "already expired":
	// the driver fails with ErrTimeout on its first iteration.
	Budget time.Duration

	// SolveFraction is k in the Learner's Solving-phase per-attempt
	// budget of total/k.
	SolveFraction int

	// Handler selects the stuck-point handler (Learner or LTL).
	Handler HandlerMode

	// OraclePath is the path to the external LTL satisfiability tool
	// executable. Required when Handler is HandlerLTL, unless
	// OracleRunner is set.
	OraclePath string

	// OracleRunner overrides the default ProcessOracleRunner built from
	// OraclePath. Tests inject a canned responder here so they never
	// need a real solver binary on the test host; production callers
	// leave it nil and set OraclePath instead.
	OracleRunner OracleRunner

	// Rand is the random source used to shuffle candidate groups at
	// each stack frame. Injectable for reproducible tests; DefaultConfig
	// seeds one from the current time, and Validate rejects a nil Rand.
	Rand *rand.Rand

	// Logger receives structured progress logging from the driver,
	// learner, and oracle client. A nil Logger disables logging (see
	// Monitor's nil-safety).
	Logger *logrus.Entry
}

// DefaultConfig returns a Config with the Dependency Learner as the
// active handler, a solve fan-out of 4, and a time-seeded random source.
func DefaultConfig(budget time.Duration) *Config {
	return &Config{
		Budget:        budget,
		SolveFraction: 4,
		Handler:       HandlerLearner,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:        logrus.NewEntry(logrus.StandardLogger()),
	}
}

// Validate checks that the configuration is complete and internally
// consistent.
func (c *Config) Validate() error {
	if c.SolveFraction <= 0 {
		return &ConfigError{Field: "SolveFraction", Message: "must be positive"}
	}
	if c.Rand == nil {
		return &ConfigError{Field: "Rand", Message: "must not be nil"}
	}
	if c.Handler == HandlerLTL && c.OraclePath == "" && c.OracleRunner == nil {
		return &ConfigError{Field: "OraclePath", Message: "required when Handler is HandlerLTL and OracleRunner is unset"}
	}
	return nil
}

// Clone returns a shallow copy of the configuration. Rand and Logger are
// shared, matching the teacher's StrategyConfig.Clone convention
// (strategies/loggers are typically stateless enough to share).
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "reorder: invalid config field " + e.Field + ": " + e.Message
}
