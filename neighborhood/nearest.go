package neighborhood

import (
	"github.com/hupe1980/recgo/internal/top"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

// Compile time check to ensure NearestN satisfies the UserNeighborhood interface.
var _ UserNeighborhood = (*NearestN)(nil)

// NearestN selects the n users most correlated with the target. Undefined
// correlations are discarded; ties are broken by ascending user ID so the
// selection is deterministic. Fewer than n users are returned when fewer
// candidates with defined correlation exist.
type NearestN struct {
	n   int
	sim similarity.UserSimilarity
	dm  model.DataModel
}

// NewNearestN creates a nearest-n neighborhood. n must be at least 1.
func NewNearestN(n int, sim similarity.UserSimilarity, dm model.DataModel) (*NearestN, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	if sim == nil {
		return nil, ErrNilSimilarity
	}
	if n < 1 {
		return nil, ErrInvalidSize
	}

	return &NearestN{n: n, sim: sim, dm: dm}, nil
}

// Neighborhood returns up to n users ordered by descending correlation.
func (nh *NearestN) Neighborhood(userID model.UserID) ([]model.UserID, error) {
	if _, err := nh.dm.PreferencesFromUser(userID); err != nil {
		return nil, err
	}

	ids, scores, err := scoreAll(nh.dm, nh.sim, userID)
	if err != nil {
		return nil, err
	}

	collector := top.NewCollector(nh.n)
	for i, s := range scores {
		if similarity.IsNone(s) {
			continue
		}
		collector.Add(top.Item{ID: uint64(ids[i]), Value: s})
	}

	ranked := collector.Ranked()
	hood := make([]model.UserID, len(ranked))
	for i, it := range ranked {
		hood[i] = model.UserID(it.ID)
	}

	return hood, nil
}

// Refresh propagates to the similarity and the data model.
func (nh *NearestN) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(nh)

	refresh.Recurse(visited, nh.sim, nh.dm)
}
