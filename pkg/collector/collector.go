// Package collector runs the scroll-and-harvest loop over an incrementally
// rendered list and decides when the list is exhausted.
package collector

import (
	"context"
	"fmt"
	"time"

	"xreposters/pkg/browser"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
)

// Default loop settings
const (
	DefaultMaxIterations   = 50
	DefaultPause           = 700 * time.Millisecond
	DefaultStabilityWindow = 3
)

// Source is a list that exposes its currently rendered records and can be
// asked to render more.
type Source interface {
	Records(ctx context.Context) ([]string, error)
	Advance(ctx context.Context) error
}

// Extractor turns one record into an entity
type Extractor func(record string) (models.CollectedEntity, error)

// State is the accumulation of one run: entities in first-seen order plus
// the termination bookkeeping.
type State struct {
	entities []models.CollectedEntity
	seen     map[string]struct{}
	stable   int
	lastSize int
}

// NewState returns an empty state
func NewState() *State {
	return &State{seen: make(map[string]struct{})}
}

// Add appends e unless its handle is empty or already collected
func (s *State) Add(e models.CollectedEntity) bool {
	if e.Handle == "" {
		return false
	}
	if _, ok := s.seen[e.Handle]; ok {
		return false
	}
	s.seen[e.Handle] = struct{}{}
	s.entities = append(s.entities, e)
	return true
}

// Observe records the end of an iteration and reports whether the list has
// stopped growing for window consecutive iterations.
func (s *State) Observe(window int) bool {
	if len(s.entities) == s.lastSize {
		s.stable++
		return s.stable >= window
	}
	s.lastSize = len(s.entities)
	s.stable = 0
	return false
}

// Entities returns the collected entities in first-seen order
func (s *State) Entities() []models.CollectedEntity {
	out := make([]models.CollectedEntity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Len returns the number of distinct entities collected
func (s *State) Len() int { return len(s.entities) }

// Stable returns the current count of consecutive non-growing iterations
func (s *State) Stable() int { return s.stable }

// Outcome is the result of a completed run
type Outcome struct {
	Entities   []models.CollectedEntity
	Iterations int
	// Exhausted is true when the loop stopped on stability rather than on the cap
	Exhausted bool
}

// Collector drives a Source until it stops growing or the iteration cap is hit
type Collector struct {
	MaxIterations   int
	Pause           time.Duration
	StabilityWindow int
	Log             logger.Logger
	// Sleep pauses between iterations; nil uses browser.Sleep
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns a collector with the default settings
func New(log logger.Logger) *Collector {
	return &Collector{
		MaxIterations:   DefaultMaxIterations,
		Pause:           DefaultPause,
		StabilityWindow: DefaultStabilityWindow,
		Log:             log,
	}
}

// Run harvests src. Record-level failures are logged and skipped; only
// context cancellation aborts the run, and then no partial result is returned.
func (c *Collector) Run(ctx context.Context, src Source, extract Extractor) (*Outcome, error) {
	log := c.Log
	if log == nil {
		log = logger.NewNopLogger()
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = browser.Sleep
	}
	maxIterations := c.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	window := c.StabilityWindow
	if window <= 0 {
		window = DefaultStabilityWindow
	}

	state := NewState()
	outcome := &Outcome{}

	for i := 1; i <= maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome.Iterations = i

		records, err := src.Records(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("iteration", i).Warn("Reading records failed")
			records = nil
		}

		added := 0
		for _, record := range records {
			entity, err := extractRecord(extract, record)
			if err != nil {
				log.WithError(err).Debug("Skipping record")
				continue
			}
			if state.Add(entity) {
				added++
			}
		}

		if err := src.Advance(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("iteration", i).Warn("Advancing list failed")
		}

		if err := sleep(ctx, c.Pause); err != nil {
			return nil, err
		}

		exhausted := state.Observe(window)
		logger.LogCollectProgress(log, i, state.Len(), added, state.Stable())
		if exhausted {
			outcome.Exhausted = true
			break
		}
	}

	outcome.Entities = state.Entities()
	return outcome, nil
}

// extractRecord confines extractor panics to the record that caused them
func extractRecord(extract Extractor, record string) (entity models.CollectedEntity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return extract(record)
}
