package slopeone

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/internal/top"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/recommender"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

// Compile time checks to ensure Recommender satisfies the engine contracts.
var (
	_ recommender.Recommender      = (*Recommender)(nil)
	_ recommender.PreferenceWriter = (*Recommender)(nil)
)

// Recommender is the slope-one predictor: the estimate for (user, item) is
// the user's mean rating plus the average stored diff between the target
// item and the items the user has rated. In weighted mode each diff counts
// proportionally to its support; otherwise every diff counts equally.
//
// It needs no similarity engine — all signal lives in the diff store.
type Recommender struct {
	dm          model.DataModel
	diffs       DiffStorage
	weighted    bool
	incremental bool
	logger      *slog.Logger

	// Serializes the read-modify-write against model and diff store.
	writeMu sync.Mutex
}

// Option configures a slope-one recommender.
type Option func(*config)

type config struct {
	weighted    bool
	incremental bool
	maxEntries  int
	diffs       DiffStorage
	logger      *slog.Logger
}

// WithWeighting weights each diff by its support count, so well-supported
// pair statistics dominate thin ones.
func WithWeighting() Option {
	return func(c *config) {
		c.weighted = true
	}
}

// WithoutIncrementalUpdates selects pure batch maintenance: the diff table
// changes only on Refresh, never on preference writes.
func WithoutIncrementalUpdates() Option {
	return func(c *config) {
		c.incremental = false
	}
}

// WithMaxEntries bounds the number of item pairs kept by the default
// in-memory diff store. n must be at least 1.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}

// WithDiffStorage supplies a custom diff store instead of the default
// in-memory one.
func WithDiffStorage(ds DiffStorage) Option {
	return func(c *config) {
		c.diffs = ds
	}
}

// WithLogger sets the logger used by the recommender and the default store.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a slope-one recommender over the given model.
func New(dm model.DataModel, opts ...Option) (*Recommender, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}

	cfg := config{
		incremental: true,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxEntries < 0 {
		return nil, ErrInvalidMaxEntries
	}

	diffs := cfg.diffs
	if diffs == nil {
		var storageOpts []StorageOption
		if cfg.maxEntries > 0 {
			storageOpts = append(storageOpts, WithStorageMaxEntries(cfg.maxEntries))
		}
		storageOpts = append(storageOpts, WithStorageLogger(cfg.logger))

		var err error
		diffs, err = NewMemoryDiffStorage(dm, storageOpts...)
		if err != nil {
			return nil, err
		}
	}

	return &Recommender{
		dm:          dm,
		diffs:       diffs,
		weighted:    cfg.weighted,
		incremental: cfg.incremental,
		logger:      cfg.logger,
	}, nil
}

// Recommend returns up to howMany unrated items, ranked by estimated value.
func (r *Recommender) Recommend(userID model.UserID, howMany int, rescorer recommender.Rescorer) ([]recommender.RecommendedItem, error) {
	if howMany < 1 {
		return nil, recommender.ErrInvalidHowMany
	}

	prefs, err := r.dm.PreferencesFromUser(userID)
	if err != nil {
		return nil, err
	}

	rated, err := r.dm.ItemIDsFromUser(userID)
	if err != nil {
		return nil, err
	}

	candidates := roaring64.New()
	for _, itemID := range r.dm.ItemIDs() {
		candidates.Add(uint64(itemID))
	}
	candidates.AndNot(rated)

	collector := top.NewCollector(howMany)
	it := candidates.Iterator()
	for it.HasNext() {
		itemID := model.ItemID(it.Next())

		value := r.estimate(prefs, itemID)
		if similarity.IsNone(value) {
			continue
		}
		if rescorer != nil {
			rescored, ok := rescorer.Rescore(itemID, value)
			if !ok {
				continue
			}
			value = rescored
		}
		collector.Add(top.Item{ID: uint64(itemID), Value: value})
	}

	ranked := collector.Ranked()
	items := make([]recommender.RecommendedItem, len(ranked))
	for i, c := range ranked {
		items[i] = recommender.RecommendedItem{ItemID: model.ItemID(c.ID), Value: c.Value}
	}

	return items, nil
}

// EstimatePreference returns the observed preference if one exists, else the
// slope-one estimate, else NaN.
func (r *Recommender) EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	prefs, err := r.dm.PreferencesFromUser(userID)
	if err != nil {
		return similarity.None(), err
	}

	if value, ok := prefs.Find(itemID); ok {
		return value, nil
	}

	return r.estimate(prefs, itemID), nil
}

// SetPreference writes through to the model and, in incremental mode, folds
// the change into the diff store.
func (r *Recommender) SetPreference(userID model.UserID, itemID model.ItemID, value float64) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	oldValue, had, err := r.dm.PreferenceValue(userID, itemID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}

	if err := r.dm.SetPreference(userID, itemID, value); err != nil {
		return err
	}

	if !r.incremental {
		return nil
	}

	others, err := r.othersAfterWrite(userID, itemID)
	if err != nil {
		return err
	}
	if had {
		r.diffs.UpdatePreference(others, itemID, oldValue, value)
	} else {
		r.diffs.AddPreference(others, itemID, value)
	}

	return nil
}

// RemovePreference writes through to the model and, in incremental mode,
// unfolds the removed preference from the diff store.
func (r *Recommender) RemovePreference(userID model.UserID, itemID model.ItemID) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	oldValue, had, err := r.dm.PreferenceValue(userID, itemID)
	if err != nil {
		return err
	}
	if !had {
		return nil
	}

	if err := r.dm.RemovePreference(userID, itemID); err != nil {
		return err
	}

	if !r.incremental {
		return nil
	}

	others, err := r.othersAfterWrite(userID, itemID)
	if err != nil {
		return err
	}
	r.diffs.RemovePreference(others, itemID, oldValue)

	return nil
}

// Refresh rebuilds the diff store and propagates to the model.
func (r *Recommender) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(r)

	refresh.Recurse(visited, r.diffs, r.dm)
}

// estimate returns userMean + weighted average of diff(rated -> target).
// Rated items without diff data are skipped; NaN when nothing contributes.
func (r *Recommender) estimate(prefs model.PreferenceArray, itemID model.ItemID) float64 {
	if len(prefs) == 0 {
		return similarity.None()
	}

	var userMean float64
	for i, p := range prefs {
		userMean += (p.Value - userMean) / float64(i+1)
	}

	var total, weight float64
	for _, p := range prefs {
		if p.ItemID == itemID {
			continue
		}
		avg, count, ok := r.diffs.Diff(p.ItemID, itemID)
		if !ok {
			continue
		}
		if r.weighted {
			total += avg * float64(count)
			weight += float64(count)
		} else {
			total += avg
			weight++
		}
	}

	if weight == 0 {
		return similarity.None()
	}

	return userMean + total/weight
}

// othersAfterWrite returns the user's current preferences with the written
// item stripped.
func (r *Recommender) othersAfterWrite(userID model.UserID, itemID model.ItemID) (model.PreferenceArray, error) {
	prefs, err := r.dm.PreferencesFromUser(userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil // user removed entirely
		}
		return nil, err
	}

	others := make(model.PreferenceArray, 0, len(prefs))
	for _, p := range prefs {
		if p.ItemID != itemID {
			others = append(others, p)
		}
	}
	return others, nil
}
