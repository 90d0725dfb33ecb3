// Package neighborhood selects the set of users "close enough" to a target
// user to contribute to a prediction.
package neighborhood

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

var (
	// ErrNilDataModel is returned when a neighborhood is constructed without a data model.
	ErrNilDataModel = errors.New("neighborhood: data model must not be nil")

	// ErrNilSimilarity is returned when a neighborhood is constructed without a similarity.
	ErrNilSimilarity = errors.New("neighborhood: similarity must not be nil")

	// ErrInvalidSize is returned when the neighborhood size is less than 1.
	ErrInvalidSize = errors.New("neighborhood: size must be at least 1")

	// ErrInvalidThreshold is returned when the threshold is NaN.
	ErrInvalidThreshold = errors.New("neighborhood: threshold must not be NaN")
)

// UserNeighborhood produces the candidate users for a prediction. The result
// is a fresh slice per call and never includes the target user.
type UserNeighborhood interface {
	// Neighborhood returns the selected users for the target.
	Neighborhood(userID model.UserID) ([]model.UserID, error)

	refresh.Refreshable
}

// scoreAll computes the correlation between the target user and every other
// user, fanning the similarity calls out across a bounded worker group.
// Entries stay NaN for the target itself and for failed candidates.
func scoreAll(dm model.DataModel, sim similarity.UserSimilarity, userID model.UserID) ([]model.UserID, []float64, error) {
	ids := dm.UserIDs()
	scores := make([]float64, len(ids))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range ids {
		i := i
		if ids[i] == userID {
			scores[i] = similarity.None()
			continue
		}
		g.Go(func() error {
			s, err := sim.UserSimilarity(userID, ids[i])
			if err != nil {
				return err
			}
			scores[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return ids, scores, nil
}
