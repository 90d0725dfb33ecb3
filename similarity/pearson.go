package similarity

import (
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/transform"
)

// Compile time checks to ensure Pearson satisfies the similarity interfaces.
var (
	_ UserSimilarity = (*Pearson)(nil)
	_ ItemSimilarity = (*Pearson)(nil)
)

// Pearson computes the sample Pearson correlation over the preferences two
// users (or two items) share.
//
// Without an inferrer the comparison is restricted to the strict
// intersection of rated items (or rating users). With an inferrer attached,
// gaps on one side are filled with inferred values, extending the comparison
// to the union — this changes which pairs are compared, not the formula.
type Pearson struct {
	dm            model.DataModel
	weighted      bool
	prefTransform transform.PreferenceTransform
	simTransform  transform.SimilarityTransform
	inferrer      PreferenceInferrer
}

// Option configures a Pearson similarity.
type Option func(*Pearson)

// WithWeighting biases results by overlap size, damping the advantage very
// small overlaps get.
func WithWeighting() Option {
	return func(p *Pearson) {
		p.weighted = true
	}
}

// WithTransform applies a preference transform to every observed value
// before correlation.
func WithTransform(t transform.PreferenceTransform) Option {
	return func(p *Pearson) {
		p.prefTransform = t
	}
}

// WithSimilarityTransform reshapes the final correlation value
// (e.g. case amplification).
func WithSimilarityTransform(t transform.SimilarityTransform) Option {
	return func(p *Pearson) {
		p.simTransform = t
	}
}

// WithInferrer fills rating gaps with inferred values instead of restricting
// the comparison to the strict intersection.
func WithInferrer(inf PreferenceInferrer) Option {
	return func(p *Pearson) {
		p.inferrer = inf
	}
}

// NewPearson creates a Pearson similarity over the given model.
func NewPearson(dm model.DataModel, opts ...Option) (*Pearson, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}

	p := &Pearson{dm: dm}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// UserSimilarity returns the correlation between two users' ratings.
func (p *Pearson) UserSimilarity(x, y model.UserID) (float64, error) {
	px, err := p.dm.PreferencesFromUser(x)
	if err != nil {
		return None(), err
	}
	py, err := p.dm.PreferencesFromUser(y)
	if err != nil {
		return None(), err
	}

	xs, ys, err := p.alignUsers(x, y, px, py)
	if err != nil {
		return None(), err
	}

	return p.finish(correlate(xs, ys, p.weighted, p.dm.NumItems())), nil
}

// ItemSimilarity returns the correlation between two items' rating patterns.
func (p *Pearson) ItemSimilarity(x, y model.ItemID) (float64, error) {
	px, err := p.dm.PreferencesForItem(x)
	if err != nil {
		return None(), err
	}
	py, err := p.dm.PreferencesForItem(y)
	if err != nil {
		return None(), err
	}

	xs, ys, err := p.alignItems(x, y, px, py)
	if err != nil {
		return None(), err
	}

	return p.finish(correlate(xs, ys, p.weighted, p.dm.NumUsers())), nil
}

// Refresh propagates to the model, transforms and inferrer.
func (p *Pearson) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(p)

	deps := []refresh.Refreshable{p.dm, p.inferrer}
	if p.prefTransform != nil {
		deps = append(deps, p.prefTransform)
	}
	refresh.Recurse(visited, deps...)
}

func (p *Pearson) finish(r float64) float64 {
	if p.simTransform != nil && !IsNone(r) {
		r = p.simTransform.TransformSimilarity(r)
	}
	return r
}

// alignUsers walks both users' item-ordered preferences and emits aligned
// value pairs: the intersection, or the union with inferred fills when an
// inferrer is attached.
func (p *Pearson) alignUsers(x, y model.UserID, px, py model.PreferenceArray) ([]float64, []float64, error) {
	xs := make([]float64, 0, len(px))
	ys := make([]float64, 0, len(py))

	i, j := 0, 0
	for i < len(px) || j < len(py) {
		switch {
		case j >= len(py) || (i < len(px) && px[i].ItemID < py[j].ItemID):
			if p.inferrer != nil {
				vx, err := p.observed(px[i])
				if err != nil {
					return nil, nil, err
				}
				vy, err := p.inferrer.InferPreference(y, px[i].ItemID)
				if err != nil {
					return nil, nil, err
				}
				xs = append(xs, vx)
				ys = append(ys, vy)
			}
			i++
		case i >= len(px) || py[j].ItemID < px[i].ItemID:
			if p.inferrer != nil {
				vx, err := p.inferrer.InferPreference(x, py[j].ItemID)
				if err != nil {
					return nil, nil, err
				}
				vy, err := p.observed(py[j])
				if err != nil {
					return nil, nil, err
				}
				xs = append(xs, vx)
				ys = append(ys, vy)
			}
			j++
		default:
			vx, err := p.observed(px[i])
			if err != nil {
				return nil, nil, err
			}
			vy, err := p.observed(py[j])
			if err != nil {
				return nil, nil, err
			}
			xs = append(xs, vx)
			ys = append(ys, vy)
			i++
			j++
		}
	}

	return xs, ys, nil
}

// alignItems is the item-axis twin of alignUsers: both preference lists are
// ordered ascending by user ID, gaps are users who rated only one item.
func (p *Pearson) alignItems(x, y model.ItemID, px, py []model.Preference) ([]float64, []float64, error) {
	xs := make([]float64, 0, len(px))
	ys := make([]float64, 0, len(py))

	i, j := 0, 0
	for i < len(px) || j < len(py) {
		switch {
		case j >= len(py) || (i < len(px) && px[i].UserID < py[j].UserID):
			if p.inferrer != nil {
				vx, err := p.observed(px[i])
				if err != nil {
					return nil, nil, err
				}
				vy, err := p.inferrer.InferPreference(px[i].UserID, y)
				if err != nil {
					return nil, nil, err
				}
				xs = append(xs, vx)
				ys = append(ys, vy)
			}
			i++
		case i >= len(px) || py[j].UserID < px[i].UserID:
			if p.inferrer != nil {
				vx, err := p.inferrer.InferPreference(py[j].UserID, x)
				if err != nil {
					return nil, nil, err
				}
				vy, err := p.observed(py[j])
				if err != nil {
					return nil, nil, err
				}
				xs = append(xs, vx)
				ys = append(ys, vy)
			}
			j++
		default:
			vx, err := p.observed(px[i])
			if err != nil {
				return nil, nil, err
			}
			vy, err := p.observed(py[j])
			if err != nil {
				return nil, nil, err
			}
			xs = append(xs, vx)
			ys = append(ys, vy)
			i++
			j++
		}
	}

	return xs, ys, nil
}

func (p *Pearson) observed(pref model.Preference) (float64, error) {
	if p.prefTransform == nil {
		return pref.Value, nil
	}
	return p.prefTransform.Transform(pref)
}
