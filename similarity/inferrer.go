package similarity

import (
	"sync"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time check to ensure AveragingInferrer satisfies the PreferenceInferrer interface.
var _ PreferenceInferrer = (*AveragingInferrer)(nil)

// AveragingInferrer infers a missing rating as the user's mean observed
// rating. Means are computed lazily per user and cached until Refresh.
type AveragingInferrer struct {
	dm model.DataModel

	mu    sync.Mutex
	means map[model.UserID]float64
}

// NewAveragingInferrer creates an averaging inferrer over the given model.
func NewAveragingInferrer(dm model.DataModel) (*AveragingInferrer, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	return &AveragingInferrer{
		dm:    dm,
		means: make(map[model.UserID]float64),
	}, nil
}

// InferPreference returns the user's mean rating; the item identity does not
// influence the estimate.
func (a *AveragingInferrer) InferPreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if mean, ok := a.means[userID]; ok {
		return mean, nil
	}

	prefs, err := a.dm.PreferencesFromUser(userID)
	if err != nil {
		return 0, err
	}

	var mean float64
	for i, p := range prefs {
		mean += (p.Value - mean) / float64(i+1)
	}
	a.means[userID] = mean

	return mean, nil
}

// Refresh drops the cached means and propagates to the data model.
func (a *AveragingInferrer) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(a)

	a.mu.Lock()
	a.means = make(map[model.UserID]float64)
	a.mu.Unlock()

	refresh.Recurse(visited, a.dm)
}
