package recommender

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/similarity"
)

func newItemBased(t *testing.T, dm model.DataModel) *ItemBased {
	t.Helper()

	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)
	rec, err := NewItemBased(dm, sim)
	require.NoError(t, err)

	return rec
}

func TestNewItemBased_Validation(t *testing.T) {
	dm := model.NewMemoryDataModel(nil)
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	_, err = NewItemBased(nil, sim)
	assert.ErrorIs(t, err, ErrNilDataModel)

	_, err = NewItemBased(dm, nil)
	assert.ErrorIs(t, err, ErrNilSimilarity)
}

// itemTestModel: items 10 and 30 have identical rating patterns across users
// 2-4, item 20 is their inverse. User 1 rated items 10 and 20 but not 30.
func itemTestModel(t *testing.T) model.DataModel {
	t.Helper()
	return model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 5.0}, {ItemID: 20, Value: 1.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 5.0}, {ItemID: 30, Value: 1.0}},
		3: {{ItemID: 10, Value: 3.0}, {ItemID: 20, Value: 3.0}, {ItemID: 30, Value: 3.0}},
		4: {{ItemID: 10, Value: 5.0}, {ItemID: 20, Value: 1.0}, {ItemID: 30, Value: 5.0}},
	})
}

func TestItemBased_EstimatePreference(t *testing.T) {
	dm := itemTestModel(t)
	rec := newItemBased(t, dm)

	t.Run("observed value short-circuits", func(t *testing.T) {
		v, err := rec.EstimatePreference(1, 10)
		require.NoError(t, err)
		assert.Equal(t, 5.0, v)
	})

	t.Run("cancelling weights are undefined", func(t *testing.T) {
		// Item 30 correlates at +1 with item 10 and -1 with item 20, so the
		// weight sum cancels to zero and no estimate is possible.
		v, err := rec.EstimatePreference(1, 30)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v))
	})

	t.Run("unknown user is an error", func(t *testing.T) {
		_, err := rec.EstimatePreference(99, 10)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestItemBased_EstimatePositiveWeights(t *testing.T) {
	// Items 10 and 30 move together; item 20 shares no raters with 30 except
	// through user overlap below the defined threshold.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 4.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 30, Value: 2.0}},
		3: {{ItemID: 10, Value: 3.0}, {ItemID: 30, Value: 4.0}},
		4: {{ItemID: 10, Value: 5.0}, {ItemID: 30, Value: 6.0}},
	})
	rec := newItemBased(t, dm)

	// Only item 10 contributes, with corr(30,10)=1: estimate equals the
	// user's own rating of item 10.
	v, err := rec.EstimatePreference(1, 30)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestItemBased_Recommend(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 4.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 30, Value: 2.0}, {ItemID: 40, Value: 5.0}},
		3: {{ItemID: 10, Value: 3.0}, {ItemID: 30, Value: 4.0}, {ItemID: 40, Value: 3.0}},
		4: {{ItemID: 10, Value: 5.0}, {ItemID: 30, Value: 6.0}, {ItemID: 40, Value: 1.0}},
	})
	rec := newItemBased(t, dm)

	t.Run("recommends only unrated items", func(t *testing.T) {
		items, err := rec.Recommend(1, 10, nil)
		require.NoError(t, err)
		for _, it := range items {
			assert.NotEqual(t, model.ItemID(10), it.ItemID)
		}
		require.NotEmpty(t, items)
		// Item 30 tracks item 10 positively, so it is estimated at the
		// user's rating of item 10.
		assert.Equal(t, model.ItemID(30), items[0].ItemID)
		assert.InDelta(t, 4.0, items[0].Value, 1e-12)
	})

	t.Run("invalid howMany", func(t *testing.T) {
		_, err := rec.Recommend(1, 0, nil)
		assert.ErrorIs(t, err, ErrInvalidHowMany)
	})

	t.Run("unknown user is an error", func(t *testing.T) {
		_, err := rec.Recommend(99, 5, nil)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestItemBased_WritesThrough(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}},
	})
	rec := newItemBased(t, dm)

	require.NoError(t, rec.SetPreference(1, 20, 2.0))
	v, ok, err := dm.PreferenceValue(1, 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	require.NoError(t, rec.RemovePreference(1, 20))
	_, ok, err = dm.PreferenceValue(1, 20)
	require.NoError(t, err)
	assert.False(t, ok)
}
