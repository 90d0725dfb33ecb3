package similarity

import (
	"sort"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// Compile time checks to ensure Spearman satisfies the similarity interfaces.
var (
	_ UserSimilarity = (*Spearman)(nil)
	_ ItemSimilarity = (*Spearman)(nil)
)

// Spearman computes rank correlation: Pearson over rank-transformed values.
// Tied values receive the average of the ranks they jointly occupy, so any
// strictly monotonic transform of one side leaves the correlation at 1.0.
type Spearman struct {
	dm model.DataModel
}

// NewSpearman creates a Spearman rank correlation over the given model.
func NewSpearman(dm model.DataModel) (*Spearman, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	return &Spearman{dm: dm}, nil
}

// UserSimilarity returns the rank correlation between two users' ratings
// over the items both have rated.
func (s *Spearman) UserSimilarity(x, y model.UserID) (float64, error) {
	px, err := s.dm.PreferencesFromUser(x)
	if err != nil {
		return None(), err
	}
	py, err := s.dm.PreferencesFromUser(y)
	if err != nil {
		return None(), err
	}

	xs := make([]float64, 0, len(px))
	ys := make([]float64, 0, len(py))
	i, j := 0, 0
	for i < len(px) && j < len(py) {
		switch {
		case px[i].ItemID < py[j].ItemID:
			i++
		case py[j].ItemID < px[i].ItemID:
			j++
		default:
			xs = append(xs, px[i].Value)
			ys = append(ys, py[j].Value)
			i++
			j++
		}
	}

	return correlate(ranks(xs), ranks(ys), false, 0), nil
}

// ItemSimilarity returns the rank correlation between two items' rating
// patterns over the users who rated both.
func (s *Spearman) ItemSimilarity(x, y model.ItemID) (float64, error) {
	px, err := s.dm.PreferencesForItem(x)
	if err != nil {
		return None(), err
	}
	py, err := s.dm.PreferencesForItem(y)
	if err != nil {
		return None(), err
	}

	xs := make([]float64, 0, len(px))
	ys := make([]float64, 0, len(py))
	i, j := 0, 0
	for i < len(px) && j < len(py) {
		switch {
		case px[i].UserID < py[j].UserID:
			i++
		case py[j].UserID < px[i].UserID:
			j++
		default:
			xs = append(xs, px[i].Value)
			ys = append(ys, py[j].Value)
			i++
			j++
		}
	}

	return correlate(ranks(xs), ranks(ys), false, 0), nil
}

// Refresh propagates to the data model.
func (s *Spearman) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(s)

	refresh.Recurse(visited, s.dm)
}

// ranks replaces each value by its 1-based rank; ties receive the average of
// the ranks they would jointly occupy.
func ranks(vs []float64) []float64 {
	n := len(vs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return vs[order[a]] < vs[order[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && vs[order[j+1]] == vs[order[i]] {
			j++
		}
		// Average of ranks i+1 .. j+1.
		avg := float64(i+j+2) / 2.0
		for k := i; k <= j; k++ {
			out[order[k]] = avg
		}
		i = j + 1
	}

	return out
}
