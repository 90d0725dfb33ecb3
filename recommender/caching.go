package recommender

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time checks to ensure Caching satisfies the engine contracts.
var (
	_ Recommender      = (*Caching)(nil)
	_ PreferenceWriter = (*Caching)(nil)
)

// Caching wraps any Recommender with memoization and single-flight request
// coalescing: concurrent requests sharing a key cause exactly one delegate
// computation, and all callers receive its result.
//
// Any write or Refresh clears the entire cache. Predictor outputs can depend
// on global statistics (means, diff tables), so partial invalidation by user
// or item would not be safe.
//
// Recommend results are keyed by (user, howMany, rescorer identity).
// Rescorer identity is the rescorer's pointer. Func-kind rescorers are
// identified by their code pointer, which every closure of one function
// literal shares; rescorers of other non-pointer kinds fall back to their
// dynamic type name. Differently-configured rescorers of those kinds must
// not be mixed on one cache.
type Caching struct {
	delegate Recommender
	logger   *slog.Logger

	sf singleflight.Group

	mu   sync.RWMutex
	gen  uint64
	recs map[string][]RecommendedItem
	ests map[string]float64
}

// CachingOption configures a Caching recommender.
type CachingOption func(*Caching)

// WithLogger sets the logger used for cache lifecycle events.
func WithLogger(logger *slog.Logger) CachingOption {
	return func(c *Caching) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCaching wraps the delegate with a memoizing, single-flight cache.
func NewCaching(delegate Recommender, opts ...CachingOption) (*Caching, error) {
	if delegate == nil {
		return nil, ErrNilDelegate
	}

	c := &Caching{
		delegate: delegate,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recs:     make(map[string][]RecommendedItem),
		ests:     make(map[string]float64),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Recommend returns the cached ranking for (userID, howMany, rescorer) or
// computes it once via the delegate.
func (c *Caching) Recommend(userID model.UserID, howMany int, rescorer Rescorer) ([]RecommendedItem, error) {
	if howMany < 1 {
		return nil, ErrInvalidHowMany
	}

	key := fmt.Sprintf("r/%d/%d/%s", userID, howMany, rescorerIdentity(rescorer))

	c.mu.RLock()
	gen := c.gen
	if items, ok := c.recs[key]; ok {
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	// The generation is part of the flight key so callers arriving after an
	// invalidation never attach to a stale in-flight computation.
	v, err, _ := c.sf.Do(flightKey(gen, key), func() (any, error) {
		items, err := c.delegate.Recommend(userID, howMany, rescorer)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.recs[key] = items
		}
		c.mu.Unlock()

		return items, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]RecommendedItem), nil
}

// EstimatePreference returns the cached estimate for (userID, itemID) or
// computes it once via the delegate.
func (c *Caching) EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	key := fmt.Sprintf("e/%d/%d", userID, itemID)

	c.mu.RLock()
	gen := c.gen
	if value, ok := c.ests[key]; ok {
		c.mu.RUnlock()
		return value, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sf.Do(flightKey(gen, key), func() (any, error) {
		value, err := c.delegate.EstimatePreference(userID, itemID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.ests[key] = value
		}
		c.mu.Unlock()

		return value, nil
	})
	if err != nil {
		return 0, err
	}

	return v.(float64), nil
}

// SetPreference writes through to the delegate and clears the cache.
// Delegates without write support return ErrUnsupported.
func (c *Caching) SetPreference(userID model.UserID, itemID model.ItemID, value float64) error {
	pw, ok := c.delegate.(PreferenceWriter)
	if !ok {
		return fmt.Errorf("caching recommender: %w", model.ErrUnsupported)
	}
	if err := pw.SetPreference(userID, itemID, value); err != nil {
		return err
	}
	c.invalidate("set_preference")
	return nil
}

// RemovePreference writes through to the delegate and clears the cache.
// Delegates without write support return ErrUnsupported.
func (c *Caching) RemovePreference(userID model.UserID, itemID model.ItemID) error {
	pw, ok := c.delegate.(PreferenceWriter)
	if !ok {
		return fmt.Errorf("caching recommender: %w", model.ErrUnsupported)
	}
	if err := pw.RemovePreference(userID, itemID); err != nil {
		return err
	}
	c.invalidate("remove_preference")
	return nil
}

// Refresh clears the cache and propagates to the delegate.
func (c *Caching) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(c)

	c.invalidate("refresh")

	refresh.Recurse(visited, c.delegate)
}

// invalidate bumps the generation and replaces both tables. In-flight
// computations from the old generation complete for their callers but are
// not stored.
func (c *Caching) invalidate(cause string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.recs = make(map[string][]RecommendedItem)
	c.ests = make(map[string]float64)
	c.mu.Unlock()

	c.logger.Debug("recommendation cache cleared",
		"cause", cause,
		"generation", gen,
	)
}

func flightKey(gen uint64, key string) string {
	return fmt.Sprintf("%d/%s", gen, key)
}

// rescorerIdentity derives a stable cache-key component from the rescorer's
// identity. Nil rescorers form their own key space. For func kinds the
// identity is the code pointer, so all closures of one function literal
// share it.
func rescorerIdentity(r Rescorer) string {
	if r == nil {
		return "none"
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%x", r, v.Pointer())
	default:
		return fmt.Sprintf("%T", r)
	}
}
