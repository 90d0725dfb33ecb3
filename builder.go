// Package recgo provides an embeddable collaborative-filtering recommendation engine.
//
// This file implements engine-specific fluent builder APIs for creating and configuring recommenders.
// Builders are immutable - each method returns a new builder with the updated configuration.
package recgo

import (
	"fmt"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/neighborhood"
	"github.com/hupe1980/recgo/recommender"
	"github.com/hupe1980/recgo/similarity"
	"github.com/hupe1980/recgo/slopeone"
	"github.com/hupe1980/recgo/transform"
)

type similarityKind int

const (
	simPearson similarityKind = iota
	simSpearman
)

type transformKind int

const (
	transformNone transformKind = iota
	transformZScore
	transformIUF
)

// =============================================================================
// User-Based Builder (Immutable)
// =============================================================================

// UserBased creates a builder for a user-based recommender: predictions come
// from the ratings of a neighborhood of similar users.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration.
//
// Example:
//
//	rec, err := recgo.UserBased(dm).
//	    Pearson().
//	    Weighted().
//	    NearestN(10).
//	    Cached().
//	    Build()
func UserBased(dm model.DataModel) UserBasedBuilder {
	return UserBasedBuilder{
		dm:  dm,
		sim: simPearson,
		n:   10,
	}
}

// UserBasedBuilder is an immutable fluent builder for user-based recommenders.
type UserBasedBuilder struct {
	dm           model.DataModel
	sim          similarityKind
	weighted     bool
	prefT        transformKind
	iufBase      float64
	inferred     bool
	caseAmp      float64
	hasCaseAmp   bool
	n            int
	threshold    float64
	useThreshold bool
	cached       bool
	logger       *Logger
}

// Pearson selects Pearson correlation (default).
func (b UserBasedBuilder) Pearson() UserBasedBuilder {
	b.sim = simPearson
	return b
}

// Spearman selects Spearman rank correlation. Spearman supports none of the
// Pearson refinements (weighting, transforms, inference).
func (b UserBasedBuilder) Spearman() UserBasedBuilder {
	b.sim = simSpearman
	return b
}

// Weighted biases correlations by overlap size, damping the advantage very
// small overlaps get.
func (b UserBasedBuilder) Weighted() UserBasedBuilder {
	b.weighted = true
	return b
}

// ZScore normalizes every preference to its user's rating distribution
// before correlation.
func (b UserBasedBuilder) ZScore() UserBasedBuilder {
	b.prefT = transformZScore
	return b
}

// InverseUserFrequency de-emphasizes items nearly everyone has rated.
// base must be finite and greater than 1.
func (b UserBasedBuilder) InverseUserFrequency(base float64) UserBasedBuilder {
	b.prefT = transformIUF
	b.iufBase = base
	return b
}

// Inferred fills rating gaps with the user's mean rating instead of
// restricting comparisons to the strict intersection.
func (b UserBasedBuilder) Inferred() UserBasedBuilder {
	b.inferred = true
	return b
}

// CaseAmplification reshapes correlations to sign(v) * |v|^factor.
// factor must be finite and non-zero.
func (b UserBasedBuilder) CaseAmplification(factor float64) UserBasedBuilder {
	b.caseAmp = factor
	b.hasCaseAmp = true
	return b
}

// NearestN selects the n most correlated users (default, n=10).
func (b UserBasedBuilder) NearestN(n int) UserBasedBuilder {
	b.n = n
	b.useThreshold = false
	return b
}

// Threshold selects every user at or above the given correlation.
func (b UserBasedBuilder) Threshold(t float64) UserBasedBuilder {
	b.threshold = t
	b.useThreshold = true
	return b
}

// Cached wraps the engine in a memoizing, single-flight cache.
func (b UserBasedBuilder) Cached() UserBasedBuilder {
	b.cached = true
	return b
}

// WithLogger attaches a logger: every engine operation is logged, and the
// cache and storage components log through it too.
func (b UserBasedBuilder) WithLogger(logger *Logger) UserBasedBuilder {
	b.logger = logger
	return b
}

// Build assembles the recommender. Misconfiguration fails here, never at
// query time.
func (b UserBasedBuilder) Build() (recommender.Recommender, error) {
	sim, err := buildUserSimilarity(b.dm, b.sim, b.weighted, b.prefT, b.iufBase, b.inferred, b.caseAmp, b.hasCaseAmp)
	if err != nil {
		return nil, translateError(err)
	}

	var hood neighborhood.UserNeighborhood
	if b.useThreshold {
		hood, err = neighborhood.NewThreshold(b.threshold, sim, b.dm)
	} else {
		hood, err = neighborhood.NewNearestN(b.n, sim, b.dm)
	}
	if err != nil {
		return nil, translateError(err)
	}

	rec, err := recommender.NewUserBased(b.dm, sim, hood)
	if err != nil {
		return nil, translateError(err)
	}

	return wrapEngine(rec, b.cached, b.logger)
}

// =============================================================================
// Item-Based Builder (Immutable)
// =============================================================================

// ItemBased creates a builder for an item-based recommender: predictions
// come from the user's own ratings, weighted by item-item correlation.
//
// Example:
//
//	rec, err := recgo.ItemBased(dm).
//	    Pearson().
//	    CaseAmplification(2.0).
//	    Build()
func ItemBased(dm model.DataModel) ItemBasedBuilder {
	return ItemBasedBuilder{
		dm:  dm,
		sim: simPearson,
	}
}

// ItemBasedBuilder is an immutable fluent builder for item-based recommenders.
type ItemBasedBuilder struct {
	dm         model.DataModel
	sim        similarityKind
	weighted   bool
	prefT      transformKind
	iufBase    float64
	inferred   bool
	caseAmp    float64
	hasCaseAmp bool
	cached     bool
	logger     *Logger
}

// Pearson selects Pearson correlation (default).
func (b ItemBasedBuilder) Pearson() ItemBasedBuilder {
	b.sim = simPearson
	return b
}

// Spearman selects Spearman rank correlation. Spearman supports none of the
// Pearson refinements (weighting, transforms, inference).
func (b ItemBasedBuilder) Spearman() ItemBasedBuilder {
	b.sim = simSpearman
	return b
}

// Weighted biases correlations by overlap size.
func (b ItemBasedBuilder) Weighted() ItemBasedBuilder {
	b.weighted = true
	return b
}

// ZScore normalizes every preference to its user's rating distribution
// before correlation.
func (b ItemBasedBuilder) ZScore() ItemBasedBuilder {
	b.prefT = transformZScore
	return b
}

// InverseUserFrequency de-emphasizes items nearly everyone has rated.
func (b ItemBasedBuilder) InverseUserFrequency(base float64) ItemBasedBuilder {
	b.prefT = transformIUF
	b.iufBase = base
	return b
}

// Inferred fills rating gaps with the rater's mean rating.
func (b ItemBasedBuilder) Inferred() ItemBasedBuilder {
	b.inferred = true
	return b
}

// CaseAmplification reshapes correlations to sign(v) * |v|^factor.
func (b ItemBasedBuilder) CaseAmplification(factor float64) ItemBasedBuilder {
	b.caseAmp = factor
	b.hasCaseAmp = true
	return b
}

// Cached wraps the engine in a memoizing, single-flight cache.
func (b ItemBasedBuilder) Cached() ItemBasedBuilder {
	b.cached = true
	return b
}

// WithLogger attaches a logger: every engine operation is logged, and the
// cache and storage components log through it too.
func (b ItemBasedBuilder) WithLogger(logger *Logger) ItemBasedBuilder {
	b.logger = logger
	return b
}

// Build assembles the recommender.
func (b ItemBasedBuilder) Build() (recommender.Recommender, error) {
	sim, err := buildItemSimilarity(b.dm, b.sim, b.weighted, b.prefT, b.iufBase, b.inferred, b.caseAmp, b.hasCaseAmp)
	if err != nil {
		return nil, translateError(err)
	}

	rec, err := recommender.NewItemBased(b.dm, sim)
	if err != nil {
		return nil, translateError(err)
	}

	return wrapEngine(rec, b.cached, b.logger)
}

// =============================================================================
// Slope-One Builder (Immutable)
// =============================================================================

// SlopeOne creates a builder for a slope-one recommender. Slope-one needs no
// similarity engine; its signal is the table of pairwise rating differences.
//
// Example:
//
//	rec, err := recgo.SlopeOne(dm).
//	    Weighted().
//	    MaxEntries(100_000).
//	    Cached().
//	    Build()
func SlopeOne(dm model.DataModel) SlopeOneBuilder {
	return SlopeOneBuilder{dm: dm}
}

// SlopeOneBuilder is an immutable fluent builder for slope-one recommenders.
type SlopeOneBuilder struct {
	dm         model.DataModel
	weighted   bool
	batchOnly  bool
	maxEntries int
	cached     bool
	logger     *Logger
}

// Weighted weights each pair diff by its support count.
func (b SlopeOneBuilder) Weighted() SlopeOneBuilder {
	b.weighted = true
	return b
}

// BatchOnly disables incremental diff maintenance: the diff table changes
// only on Refresh, never on preference writes.
func (b SlopeOneBuilder) BatchOnly() SlopeOneBuilder {
	b.batchOnly = true
	return b
}

// MaxEntries bounds the number of item pairs kept; the least recently
// updated pairs are evicted first.
func (b SlopeOneBuilder) MaxEntries(n int) SlopeOneBuilder {
	b.maxEntries = n
	return b
}

// Cached wraps the engine in a memoizing, single-flight cache.
func (b SlopeOneBuilder) Cached() SlopeOneBuilder {
	b.cached = true
	return b
}

// WithLogger attaches a logger: every engine operation is logged, and the
// cache and storage components log through it too.
func (b SlopeOneBuilder) WithLogger(logger *Logger) SlopeOneBuilder {
	b.logger = logger
	return b
}

// Build assembles the recommender.
func (b SlopeOneBuilder) Build() (recommender.Recommender, error) {
	opts := make([]slopeone.Option, 0, 4)
	if b.weighted {
		opts = append(opts, slopeone.WithWeighting())
	}
	if b.batchOnly {
		opts = append(opts, slopeone.WithoutIncrementalUpdates())
	}
	if b.maxEntries > 0 {
		opts = append(opts, slopeone.WithMaxEntries(b.maxEntries))
	}
	if b.logger != nil {
		opts = append(opts, slopeone.WithLogger(b.logger.Logger))
	}

	rec, err := slopeone.New(b.dm, opts...)
	if err != nil {
		return nil, translateError(err)
	}

	return wrapEngine(rec, b.cached, b.logger)
}

// =============================================================================
// Shared assembly
// =============================================================================

func buildUserSimilarity(dm model.DataModel, kind similarityKind, weighted bool, prefT transformKind, iufBase float64, inferred bool, caseAmp float64, hasCaseAmp bool) (similarity.UserSimilarity, error) {
	if kind == simSpearman {
		if weighted || prefT != transformNone || inferred || hasCaseAmp {
			return nil, fmt.Errorf("%w: spearman correlation supports no pearson refinements", ErrInvalidArgument)
		}
		return similarity.NewSpearman(dm)
	}

	opts, err := pearsonOptions(dm, weighted, prefT, iufBase, inferred, caseAmp, hasCaseAmp)
	if err != nil {
		return nil, err
	}
	return similarity.NewPearson(dm, opts...)
}

func buildItemSimilarity(dm model.DataModel, kind similarityKind, weighted bool, prefT transformKind, iufBase float64, inferred bool, caseAmp float64, hasCaseAmp bool) (similarity.ItemSimilarity, error) {
	if kind == simSpearman {
		if weighted || prefT != transformNone || inferred || hasCaseAmp {
			return nil, fmt.Errorf("%w: spearman correlation supports no pearson refinements", ErrInvalidArgument)
		}
		return similarity.NewSpearman(dm)
	}

	opts, err := pearsonOptions(dm, weighted, prefT, iufBase, inferred, caseAmp, hasCaseAmp)
	if err != nil {
		return nil, err
	}
	return similarity.NewPearson(dm, opts...)
}

func pearsonOptions(dm model.DataModel, weighted bool, prefT transformKind, iufBase float64, inferred bool, caseAmp float64, hasCaseAmp bool) ([]similarity.Option, error) {
	var opts []similarity.Option

	if weighted {
		opts = append(opts, similarity.WithWeighting())
	}

	switch prefT {
	case transformZScore:
		t, err := transform.NewZScore(dm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, similarity.WithTransform(t))
	case transformIUF:
		t, err := transform.NewInverseUserFrequency(dm, iufBase)
		if err != nil {
			return nil, err
		}
		opts = append(opts, similarity.WithTransform(t))
	}

	if inferred {
		inf, err := similarity.NewAveragingInferrer(dm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, similarity.WithInferrer(inf))
	}

	if hasCaseAmp {
		amp, err := transform.NewCaseAmplification(caseAmp)
		if err != nil {
			return nil, err
		}
		opts = append(opts, similarity.WithSimilarityTransform(amp))
	}

	return opts, nil
}

func wrapEngine(rec recommender.Recommender, cached bool, logger *Logger) (recommender.Recommender, error) {
	if cached {
		var opts []recommender.CachingOption
		if logger != nil {
			opts = append(opts, recommender.WithLogger(logger.Logger))
		}

		cachingRec, err := recommender.NewCaching(rec, opts...)
		if err != nil {
			return nil, translateError(err)
		}
		rec = cachingRec
	}

	if logger != nil {
		rec = &loggingRecommender{delegate: rec, logger: logger}
	}

	return rec, nil
}
