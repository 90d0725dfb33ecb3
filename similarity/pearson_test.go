package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/transform"
)

func TestPearson_UserSimilarity(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 3.0}},
		2: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 4.0}, {ItemID: 30, Value: 6.0}},
		3: {{ItemID: 10, Value: 3.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 1.0}},
		4: {{ItemID: 10, Value: 5.0}, {ItemID: 20, Value: 5.0}, {ItemID: 30, Value: 5.0}},
		5: {{ItemID: 40, Value: 1.0}},
	})

	p, err := NewPearson(dm)
	require.NoError(t, err)

	t.Run("linearly related users correlate at one", func(t *testing.T) {
		v, err := p.UserSimilarity(1, 2)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v, 1e-12)
	})

	t.Run("inverted users correlate at minus one", func(t *testing.T) {
		v, err := p.UserSimilarity(1, 3)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, v, 1e-12)
	})

	t.Run("symmetry", func(t *testing.T) {
		xy, err := p.UserSimilarity(1, 3)
		require.NoError(t, err)
		yx, err := p.UserSimilarity(3, 1)
		require.NoError(t, err)
		assert.Equal(t, xy, yx)
	})

	t.Run("zero variance is undefined", func(t *testing.T) {
		v, err := p.UserSimilarity(1, 4)
		require.NoError(t, err)
		assert.True(t, IsNone(v))
	})

	t.Run("no overlap is undefined", func(t *testing.T) {
		v, err := p.UserSimilarity(1, 5)
		require.NoError(t, err)
		assert.True(t, IsNone(v))
	})

	t.Run("unknown user is an error", func(t *testing.T) {
		_, err := p.UserSimilarity(1, 99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestPearson_ItemSimilarity(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}},
		2: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 4.0}},
		3: {{ItemID: 10, Value: 3.0}, {ItemID: 20, Value: 6.0}},
		4: {{ItemID: 30, Value: 1.0}},
	})

	p, err := NewPearson(dm)
	require.NoError(t, err)

	v, err := p.ItemSimilarity(10, 20)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	v, err = p.ItemSimilarity(10, 30)
	require.NoError(t, err)
	assert.True(t, IsNone(v))

	_, err = p.ItemSimilarity(10, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPearson_Weighted(t *testing.T) {
	// 6 items total; users 1/2 overlap on 2 of them, users 1/3 on all 6.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {
			{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 3.0},
			{ItemID: 40, Value: 4.0}, {ItemID: 50, Value: 5.0}, {ItemID: 60, Value: 6.0},
		},
		2: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 3.0}, {ItemID: 70, Value: 1.0}},
		3: {
			{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 1.0}, {ItemID: 30, Value: 4.0},
			{ItemID: 40, Value: 3.0}, {ItemID: 50, Value: 6.0}, {ItemID: 60, Value: 5.0},
		},
	})

	raw, err := NewPearson(dm)
	require.NoError(t, err)
	weighted, err := NewPearson(dm, WithWeighting())
	require.NoError(t, err)

	t.Run("large overlap strengthens positive correlation", func(t *testing.T) {
		r, err := raw.UserSimilarity(1, 3)
		require.NoError(t, err)
		w, err := weighted.UserSimilarity(1, 3)
		require.NoError(t, err)
		assert.Greater(t, w, r)
		assert.LessOrEqual(t, w, 1.0)
	})

	t.Run("weighted stays within bounds", func(t *testing.T) {
		w, err := weighted.UserSimilarity(1, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, w, -1.0)
		assert.LessOrEqual(t, w, 1.0)
	})
}

func TestPearson_WithTransform(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 3.0}},
		2: {{ItemID: 10, Value: 4.0}, {ItemID: 20, Value: 5.0}, {ItemID: 30, Value: 6.0}},
	})

	z, err := transform.NewZScore(dm)
	require.NoError(t, err)
	p, err := NewPearson(dm, WithTransform(z))
	require.NoError(t, err)

	// Z-scoring preserves the perfect linear relation.
	v, err := p.UserSimilarity(1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}

func TestPearson_WithSimilarityTransform(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 2.0}, {ItemID: 30, Value: 2.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 3.0}, {ItemID: 30, Value: 2.0}},
	})

	amp, err := transform.NewCaseAmplification(2.0)
	require.NoError(t, err)

	raw, err := NewPearson(dm)
	require.NoError(t, err)
	amped, err := NewPearson(dm, WithSimilarityTransform(amp))
	require.NoError(t, err)

	r, err := raw.UserSimilarity(1, 2)
	require.NoError(t, err)
	a, err := amped.UserSimilarity(1, 2)
	require.NoError(t, err)

	assert.InDelta(t, r*r, a, 1e-12)
}

func TestPearson_WithInferrer(t *testing.T) {
	// Without an inferrer the overlap of users 1 and 2 is a single item, so
	// the correlation is undefined. The inferrer extends it to the union.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 5.0}},
		2: {{ItemID: 20, Value: 4.0}, {ItemID: 30, Value: 2.0}},
	})

	strict, err := NewPearson(dm)
	require.NoError(t, err)
	v, err := strict.UserSimilarity(1, 2)
	require.NoError(t, err)
	assert.True(t, IsNone(v))

	inf, err := NewAveragingInferrer(dm)
	require.NoError(t, err)
	inferred, err := NewPearson(dm, WithInferrer(inf))
	require.NoError(t, err)

	v, err = inferred.UserSimilarity(1, 2)
	require.NoError(t, err)
	assert.False(t, IsNone(v))
	assert.GreaterOrEqual(t, v, -1.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestNewPearson_NilModel(t *testing.T) {
	_, err := NewPearson(nil)
	assert.ErrorIs(t, err, ErrNilDataModel)
}
