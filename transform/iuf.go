package transform

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time check to ensure InverseUserFrequency satisfies the PreferenceTransform interface.
var _ PreferenceTransform = (*InverseUserFrequency)(nil)

// InverseUserFrequency scales each preference by
// log(numUsers/usersWhoRatedItem) / log(base), de-emphasizing items that
// nearly everyone has rated.
//
// The factor table is built by one full pass over the model and installed
// atomically; readers always see a complete snapshot and never block a
// recomputation in progress.
type InverseUserFrequency struct {
	dm      model.DataModel
	logBase float64

	table     atomic.Pointer[map[model.ItemID]float64]
	rebuildMu sync.Mutex
}

// NewInverseUserFrequency creates the transform. base must be finite and
// greater than 1.
func NewInverseUserFrequency(dm model.DataModel, base float64) (*InverseUserFrequency, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	if math.IsNaN(base) || math.IsInf(base, 0) || base <= 1.0 {
		return nil, ErrInvalidLogBase
	}

	iuf := &InverseUserFrequency{
		dm:      dm,
		logBase: math.Log(base),
	}
	iuf.rebuild()

	return iuf, nil
}

// Transform returns the preference value scaled by the item's factor.
// Items absent from the last-built snapshot pass through unchanged.
func (t *InverseUserFrequency) Transform(p model.Preference) (float64, error) {
	table := *t.table.Load()
	factor, ok := table[p.ItemID]
	if !ok {
		return p.Value, nil
	}
	return p.Value * factor, nil
}

// Refresh recomputes the factor table and swaps it in, then propagates to
// the data model.
func (t *InverseUserFrequency) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(t)

	t.rebuild()

	refresh.Recurse(visited, t.dm)
}

func (t *InverseUserFrequency) rebuild() {
	// One rebuild at a time; readers keep using the previous snapshot.
	t.rebuildMu.Lock()
	defer t.rebuildMu.Unlock()

	numUsers := t.dm.NumUsers()
	itemIDs := t.dm.ItemIDs()

	table := make(map[model.ItemID]float64, len(itemIDs))
	for _, itemID := range itemIDs {
		raters := t.dm.NumUsersWithPreferenceFor(itemID)
		if raters == 0 {
			continue
		}
		table[itemID] = math.Log(float64(numUsers)/float64(raters)) / t.logBase
	}

	t.table.Store(&table)
}
