package neighborhood

import (
	"math"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

// Compile time check to ensure Threshold satisfies the UserNeighborhood interface.
var _ UserNeighborhood = (*Threshold)(nil)

// Threshold selects every user whose correlation with the target is defined
// and at least the configured threshold. The result size is unbounded.
type Threshold struct {
	threshold float64
	sim       similarity.UserSimilarity
	dm        model.DataModel
}

// NewThreshold creates a threshold neighborhood.
func NewThreshold(threshold float64, sim similarity.UserSimilarity, dm model.DataModel) (*Threshold, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	if sim == nil {
		return nil, ErrNilSimilarity
	}
	if math.IsNaN(threshold) {
		return nil, ErrInvalidThreshold
	}

	return &Threshold{threshold: threshold, sim: sim, dm: dm}, nil
}

// Neighborhood returns all users at or above the threshold, in ascending
// user-ID order.
func (th *Threshold) Neighborhood(userID model.UserID) ([]model.UserID, error) {
	if _, err := th.dm.PreferencesFromUser(userID); err != nil {
		return nil, err
	}

	ids, scores, err := scoreAll(th.dm, th.sim, userID)
	if err != nil {
		return nil, err
	}

	var hood []model.UserID
	for i, s := range scores {
		if similarity.IsNone(s) || s < th.threshold {
			continue
		}
		hood = append(hood, ids[i])
	}

	return hood, nil
}

// Refresh propagates to the similarity and the data model.
func (th *Threshold) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(th)

	refresh.Recurse(visited, th.sim, th.dm)
}
