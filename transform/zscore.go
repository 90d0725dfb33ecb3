package transform

import (
	"math"
	"sync"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time check to ensure ZScore satisfies the PreferenceTransform interface.
var _ PreferenceTransform = (*ZScore)(nil)

// ZScore normalizes each preference to (value - userMean) / userStddev.
//
// Users with at most one rating, or zero variance, transform to 0. Per-user
// statistics are computed lazily on first use and cached until Refresh.
type ZScore struct {
	dm model.DataModel

	mu    sync.Mutex
	stats map[model.UserID]userStats
}

type userStats struct {
	mean   float64
	stddev float64
	n      int
}

// NewZScore creates a z-score preference transform over the given model.
func NewZScore(dm model.DataModel) (*ZScore, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	return &ZScore{
		dm:    dm,
		stats: make(map[model.UserID]userStats),
	}, nil
}

// Transform returns the z-score of the preference within its user's ratings.
func (z *ZScore) Transform(p model.Preference) (float64, error) {
	st, err := z.userStats(p.UserID)
	if err != nil {
		return 0, err
	}
	if st.n <= 1 || st.stddev == 0 {
		return 0, nil
	}
	return (p.Value - st.mean) / st.stddev, nil
}

// Refresh drops the cached statistics and propagates to the data model.
func (z *ZScore) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(z)

	z.mu.Lock()
	z.stats = make(map[model.UserID]userStats)
	z.mu.Unlock()

	refresh.Recurse(visited, z.dm)
}

func (z *ZScore) userStats(userID model.UserID) (userStats, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if st, ok := z.stats[userID]; ok {
		return st, nil
	}

	prefs, err := z.dm.PreferencesFromUser(userID)
	if err != nil {
		return userStats{}, err
	}

	// Welford's method: numerically stable under long preference lists.
	var mean, m2 float64
	n := 0
	for _, p := range prefs {
		n++
		delta := p.Value - mean
		mean += delta / float64(n)
		m2 += delta * (p.Value - mean)
	}

	st := userStats{mean: mean, n: n}
	if n > 1 {
		st.stddev = math.Sqrt(m2 / float64(n-1))
	}
	z.stats[userID] = st

	return st, nil
}
