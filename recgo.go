package recgo

import (
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/recommender"
	"github.com/hupe1980/recgo/refresh"
)

// Facade aliases: the root package is all most callers need to import.
type (
	// DataModel is the data-source contract consumed by every engine.
	DataModel = model.DataModel

	// UserID identifies a user.
	UserID = model.UserID

	// ItemID identifies an item.
	ItemID = model.ItemID

	// Preference is a single observed (user, item, value) rating.
	Preference = model.Preference

	// Recommender is the engine contract exposed to callers.
	Recommender = recommender.Recommender

	// RecommendedItem is a single ranked recommendation.
	RecommendedItem = recommender.RecommendedItem

	// Rescorer adjusts or vetoes candidates after estimation.
	Rescorer = recommender.Rescorer

	// Refreshable is the invalidation capability of stateful components.
	Refreshable = refresh.Refreshable
)

// Refresh broadcasts an invalidation across the given components. Each
// component is refreshed at most once even when components reference each
// other.
func Refresh(components ...Refreshable) {
	refresh.Run(components...)
}
