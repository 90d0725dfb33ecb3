// Package recgo provides an embeddable collaborative-filtering
// recommendation engine for Go.
//
// Recgo turns a sparse matrix of (user, item, rating) observations into
// ranked, personalized recommendations. It is a single-process computation
// engine: data sources, transport and persistence stay behind the
// model.DataModel contract.
//
// # Engines
//
// Three prediction engines share one contract:
//
//   - User-based: correlation-weighted average over a neighborhood of
//     similar users
//   - Item-based: the user's own ratings, weighted by item-item correlation
//   - Slope-one: incremental pairwise rating differences with a dedicated
//     diff store
//
// # Quick Start
//
// Build a user-based engine with the fluent builder:
//
//	dm := model.NewMemoryDataModel(ratings)
//	rec, err := recgo.UserBased(dm).
//	    Pearson().
//	    NearestN(10).
//	    Cached().
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//
//	items, err := rec.Recommend(42, 5, nil)
//
// Estimate a single missing rating:
//
//	value, err := rec.EstimatePreference(42, 1337)
//
// # Key Features
//
//   - Pearson and Spearman correlation, user-user and item-item
//   - Weighted correlation, case amplification, z-score and
//     inverse-user-frequency preference transforms
//   - Nearest-N and threshold neighborhoods with deterministic tie-breaking
//   - Slope-one with batch or incremental diff maintenance and an optional
//     LRU-bounded pair table
//   - Memoizing cache with single-flight request coalescing and
//     whole-cache invalidation on writes
//   - Cycle-safe Refresh broadcast across the component graph
//
// # Concurrency
//
// All read paths are safe for concurrent use. Undefined correlation is a
// first-class value (NaN, see similarity.IsNone), never an error.
package recgo
