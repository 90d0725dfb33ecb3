package slopeone

import (
	"container/list"
	"io"
	"log/slog"
	"sync"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time check to ensure MemoryDiffStorage satisfies the DiffStorage interface.
var _ DiffStorage = (*MemoryDiffStorage)(nil)

type diffEntry struct {
	key   pairKey
	avg   float64
	count uint64
	elem  *list.Element // recency position; nil when unbounded
}

// MemoryDiffStorage keeps all pair diffs in memory.
//
// Refresh rebuilds the whole table from one pass over the model and installs
// it atomically: readers see the previous complete table until the swap.
// The incremental hooks serialize on the write lock and touch only the pairs
// involving the written item.
//
// With a capacity bound, the least recently updated pairs are evicted first;
// eviction drops whole pairs and never disturbs the averages of survivors.
type MemoryDiffStorage struct {
	dm         model.DataModel
	maxEntries int
	logger     *slog.Logger

	mu      sync.RWMutex
	table   map[pairKey]*diffEntry
	recency *list.List // front = most recently updated
}

// StorageOption configures a MemoryDiffStorage.
type StorageOption func(*MemoryDiffStorage)

// WithStorageMaxEntries bounds the number of distinct item pairs kept.
func WithStorageMaxEntries(n int) StorageOption {
	return func(s *MemoryDiffStorage) {
		s.maxEntries = n
	}
}

// WithStorageLogger sets the logger used for rebuild/eviction events.
func WithStorageLogger(logger *slog.Logger) StorageOption {
	return func(s *MemoryDiffStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryDiffStorage creates the store and runs an initial batch build.
func NewMemoryDiffStorage(dm model.DataModel, opts ...StorageOption) (*MemoryDiffStorage, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}

	s := &MemoryDiffStorage{
		dm:     dm,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxEntries < 0 {
		return nil, ErrInvalidMaxEntries
	}

	s.rebuild()

	return s, nil
}

// Diff returns avg(rating(b) - rating(a)) and its support count.
func (s *MemoryDiffStorage) Diff(a, b model.ItemID) (float64, uint64, bool) {
	if a == b {
		return 0, 0, false
	}
	key, sign := canonical(a, b)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.table[key]
	if !ok {
		return 0, 0, false
	}
	return sign * e.avg, e.count, true
}

// NumEntries returns the number of distinct item pairs currently stored.
func (s *MemoryDiffStorage) NumEntries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.table)
}

// AddPreference folds the new preference into every pair it forms with the
// user's other preferences.
func (s *MemoryDiffStorage) AddPreference(others model.PreferenceArray, itemID model.ItemID, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range others {
		if p.ItemID == itemID {
			continue
		}
		key, sign := canonical(p.ItemID, itemID)
		// Stored direction is rating(hi) - rating(lo); sign relates it to
		// diff(other -> written item).
		d := sign * (value - p.Value)

		e, ok := s.table[key]
		if !ok {
			e = &diffEntry{key: key}
			s.table[key] = e
			if s.recency != nil {
				e.elem = s.recency.PushFront(e)
			}
			s.evictLocked()
		}
		e.count++
		e.avg += (d - e.avg) / float64(e.count)
		s.touchLocked(e)
	}
}

// UpdatePreference shifts every affected pair average by the value delta.
// Support counts are unchanged: the same observation moved.
func (s *MemoryDiffStorage) UpdatePreference(others model.PreferenceArray, itemID model.ItemID, oldValue, newValue float64) {
	delta := newValue - oldValue

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range others {
		if p.ItemID == itemID {
			continue
		}
		key, sign := canonical(p.ItemID, itemID)

		e, ok := s.table[key]
		if !ok {
			continue
		}
		e.avg += sign * delta / float64(e.count)
		s.touchLocked(e)
	}
}

// RemovePreference unfolds the removed preference from every pair it formed
// with the user's other preferences.
func (s *MemoryDiffStorage) RemovePreference(others model.PreferenceArray, itemID model.ItemID, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range others {
		if p.ItemID == itemID {
			continue
		}
		key, sign := canonical(p.ItemID, itemID)
		d := sign * (value - p.Value)

		e, ok := s.table[key]
		if !ok {
			continue
		}
		if e.count <= 1 {
			s.removeLocked(e)
			continue
		}
		e.avg = (e.avg*float64(e.count) - d) / float64(e.count-1)
		e.count--
		s.touchLocked(e)
	}
}

// Refresh rebuilds the diff table from scratch and propagates to the model.
func (s *MemoryDiffStorage) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(s)

	s.rebuild()

	refresh.Recurse(visited, s.dm)
}

// rebuild recomputes every diff entry offline, then swaps the table in.
func (s *MemoryDiffStorage) rebuild() {
	table := make(map[pairKey]*diffEntry)
	var recency *list.List
	if s.maxEntries > 0 {
		recency = list.New()
	}

	for _, userID := range s.dm.UserIDs() {
		prefs, err := s.dm.PreferencesFromUser(userID)
		if err != nil {
			continue // user vanished mid-pass
		}
		// prefs are ordered by item ID, so prefs[j] is always the hi side.
		for i := 0; i < len(prefs); i++ {
			for j := i + 1; j < len(prefs); j++ {
				key := pairKey{lo: prefs[i].ItemID, hi: prefs[j].ItemID}
				d := prefs[j].Value - prefs[i].Value

				e, ok := table[key]
				if !ok {
					e = &diffEntry{key: key}
					table[key] = e
					if recency != nil {
						e.elem = recency.PushFront(e)
						if len(table) > s.maxEntries {
							oldest := recency.Back()
							recency.Remove(oldest)
							delete(table, oldest.Value.(*diffEntry).key)
						}
					}
				}
				e.count++
				e.avg += (d - e.avg) / float64(e.count)
				if e.elem != nil {
					recency.MoveToFront(e.elem)
				}
			}
		}
	}

	s.mu.Lock()
	s.table = table
	s.recency = recency
	s.mu.Unlock()

	s.logger.Debug("diff table rebuilt",
		"pairs", len(table),
	)
}

func (s *MemoryDiffStorage) touchLocked(e *diffEntry) {
	if e.elem != nil {
		s.recency.MoveToFront(e.elem)
	}
}

func (s *MemoryDiffStorage) removeLocked(e *diffEntry) {
	if e.elem != nil {
		s.recency.Remove(e.elem)
	}
	delete(s.table, e.key)
}

func (s *MemoryDiffStorage) evictLocked() {
	if s.recency == nil {
		return
	}
	for len(s.table) > s.maxEntries {
		oldest := s.recency.Back()
		if oldest == nil {
			return
		}
		s.removeLocked(oldest.Value.(*diffEntry))
	}
}
