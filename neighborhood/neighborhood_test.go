package neighborhood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/similarity"
)

// hoodModel builds a model where users 2 and 3 track user 1 positively,
// user 4 is anti-correlated and user 5 shares nothing with user 1.
func hoodModel(t *testing.T) model.DataModel {
	t.Helper()
	return model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 3.0}},
		2: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 4.0}, {ItemID: 30, Value: 6.0}},
		3: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.5}, {ItemID: 30, Value: 3.0}},
		4: {{ItemID: 10, Value: 3.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 1.0}},
		5: {{ItemID: 40, Value: 5.0}},
	})
}

func TestNewNearestN_Validation(t *testing.T) {
	dm := hoodModel(t)
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	_, err = NewNearestN(0, sim, dm)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewNearestN(5, nil, dm)
	assert.ErrorIs(t, err, ErrNilSimilarity)

	_, err = NewNearestN(5, sim, nil)
	assert.ErrorIs(t, err, ErrNilDataModel)
}

func TestNearestN_Neighborhood(t *testing.T) {
	dm := hoodModel(t)
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	t.Run("orders by descending correlation", func(t *testing.T) {
		nh, err := NewNearestN(2, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		require.Len(t, hood, 2)
		// Users 2 and 3 both correlate strongly; user 4 is negative.
		assert.ElementsMatch(t, []model.UserID{2, 3}, hood)
	})

	t.Run("excludes the target user", func(t *testing.T) {
		nh, err := NewNearestN(10, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		assert.NotContains(t, hood, model.UserID(1))
	})

	t.Run("discards undefined correlations", func(t *testing.T) {
		nh, err := NewNearestN(10, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		// User 5 shares nothing with user 1.
		assert.NotContains(t, hood, model.UserID(5))
		assert.Len(t, hood, 3)
	})

	t.Run("unknown target is an error", func(t *testing.T) {
		nh, err := NewNearestN(2, sim, dm)
		require.NoError(t, err)

		_, err = nh.Neighborhood(99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestNearestN_DeterministicTies(t *testing.T) {
	// Users 2 and 3 are both exact linear copies of user 1, so both correlate
	// at exactly 1.0. With room for one neighbor the lower ID must win.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}},
		3: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 4.0}},
	})
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	nh, err := NewNearestN(1, sim, dm)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		require.Len(t, hood, 1)
		assert.Equal(t, model.UserID(2), hood[0])
	}
}

func TestNewThreshold_Validation(t *testing.T) {
	dm := hoodModel(t)
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	_, err = NewThreshold(similarity.None(), sim, dm)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewThreshold(0.5, nil, dm)
	assert.ErrorIs(t, err, ErrNilSimilarity)

	_, err = NewThreshold(0.5, sim, nil)
	assert.ErrorIs(t, err, ErrNilDataModel)
}

func TestThreshold_Neighborhood(t *testing.T) {
	dm := hoodModel(t)
	sim, err := similarity.NewPearson(dm)
	require.NoError(t, err)

	t.Run("selects users at or above the threshold", func(t *testing.T) {
		nh, err := NewThreshold(0.5, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		// Ascending user-ID order.
		assert.Equal(t, []model.UserID{2, 3}, hood)
	})

	t.Run("negative threshold admits anti-correlated users", func(t *testing.T) {
		nh, err := NewThreshold(-1.0, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(1)
		require.NoError(t, err)
		assert.Equal(t, []model.UserID{2, 3, 4}, hood)
	})

	t.Run("high threshold can select nobody", func(t *testing.T) {
		nh, err := NewThreshold(0.999999, sim, dm)
		require.NoError(t, err)

		hood, err := nh.Neighborhood(4)
		require.NoError(t, err)
		assert.Empty(t, hood)
	})

	t.Run("unknown target is an error", func(t *testing.T) {
		nh, err := NewThreshold(0.5, sim, dm)
		require.NoError(t, err)

		_, err = nh.Neighborhood(99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
