package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
)

func TestZScore(t *testing.T) {
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		// mean 3, sample stddev 1
		1: {{ItemID: 10, Value: 2.0}, {ItemID: 20, Value: 3.0}, {ItemID: 30, Value: 4.0}},
		// single rating
		2: {{ItemID: 10, Value: 5.0}},
		// zero variance
		3: {{ItemID: 10, Value: 4.0}, {ItemID: 20, Value: 4.0}},
	})

	z, err := NewZScore(dm)
	require.NoError(t, err)

	t.Run("standardizes against user distribution", func(t *testing.T) {
		v, err := z.Transform(model.Preference{UserID: 1, ItemID: 10, Value: 2.0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, v, 1e-12)

		v, err = z.Transform(model.Preference{UserID: 1, ItemID: 20, Value: 3.0})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, v, 1e-12)

		v, err = z.Transform(model.Preference{UserID: 1, ItemID: 30, Value: 4.0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v, 1e-12)
	})

	t.Run("single rating transforms to zero", func(t *testing.T) {
		v, err := z.Transform(model.Preference{UserID: 2, ItemID: 10, Value: 5.0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("zero variance transforms to zero", func(t *testing.T) {
		v, err := z.Transform(model.Preference{UserID: 3, ItemID: 10, Value: 4.0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := z.Transform(model.Preference{UserID: 99, ItemID: 10, Value: 1.0})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("refresh drops cached stats", func(t *testing.T) {
		require.NoError(t, dm.SetPreference(1, 40, 100.0))
		z.Refresh(nil)

		// Stats now include the new rating, so the old mean no longer applies.
		v, err := z.Transform(model.Preference{UserID: 1, ItemID: 20, Value: 3.0})
		require.NoError(t, err)
		assert.Less(t, v, 0.0)
	})
}

func TestNewZScore_NilModel(t *testing.T) {
	_, err := NewZScore(nil)
	assert.ErrorIs(t, err, ErrNilDataModel)
}

func TestInverseUserFrequency(t *testing.T) {
	// 4 users; item 10 rated by all 4, item 20 by 2, item 30 by 1.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 1.0}, {ItemID: 30, Value: 1.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 1.0}},
		3: {{ItemID: 10, Value: 1.0}},
		4: {{ItemID: 10, Value: 1.0}},
	})

	iuf, err := NewInverseUserFrequency(dm, 2.0)
	require.NoError(t, err)

	t.Run("factor is log ratio of raters", func(t *testing.T) {
		// Universally rated item scales to zero.
		v, err := iuf.Transform(model.Preference{UserID: 1, ItemID: 10, Value: 3.0})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, v, 1e-12)

		// log2(4/2) = 1
		v, err = iuf.Transform(model.Preference{UserID: 1, ItemID: 20, Value: 3.0})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, v, 1e-12)

		// log2(4/1) = 2
		v, err = iuf.Transform(model.Preference{UserID: 1, ItemID: 30, Value: 3.0})
		require.NoError(t, err)
		assert.InDelta(t, 6.0, v, 1e-12)
	})

	t.Run("unknown item passes through", func(t *testing.T) {
		v, err := iuf.Transform(model.Preference{UserID: 1, ItemID: 99, Value: 2.5})
		require.NoError(t, err)
		assert.Equal(t, 2.5, v)
	})

	t.Run("refresh rebuilds the table", func(t *testing.T) {
		require.NoError(t, dm.SetPreference(3, 30, 1.0))
		iuf.Refresh(nil)

		// Item 30 now has 2 raters: log2(4/2) = 1.
		v, err := iuf.Transform(model.Preference{UserID: 1, ItemID: 30, Value: 3.0})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, v, 1e-12)
	})
}

func TestInverseUserFrequency_BaseChange(t *testing.T) {
	// 4 users; item 10 rated by all 4, item 20 by 2, item 30 by 1.
	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
		1: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 1.0}, {ItemID: 30, Value: 1.0}},
		2: {{ItemID: 10, Value: 1.0}, {ItemID: 20, Value: 1.0}},
		3: {{ItemID: 10, Value: 1.0}},
		4: {{ItemID: 10, Value: 1.0}},
	})

	base2, err := NewInverseUserFrequency(dm, 2.0)
	require.NoError(t, err)
	base10, err := NewInverseUserFrequency(dm, 10.0)
	require.NoError(t, err)

	// factor = log(n/k) / log(base), so switching the base from B1 to B2
	// rescales every non-zero factor by the same log(B2)/log(B1).
	for _, itemID := range []model.ItemID{20, 30} {
		v2, err := base2.Transform(model.Preference{UserID: 1, ItemID: itemID, Value: 3.0})
		require.NoError(t, err)
		v10, err := base10.Transform(model.Preference{UserID: 1, ItemID: itemID, Value: 3.0})
		require.NoError(t, err)

		assert.InDelta(t, math.Log(10)/math.Log(2), v2/v10, 1e-12)
	}
}

func TestNewInverseUserFrequency_Validation(t *testing.T) {
	dm := model.NewMemoryDataModel(nil)

	tests := []struct {
		name string
		base float64
	}{
		{name: "base one", base: 1.0},
		{name: "base below one", base: 0.5},
		{name: "negative base", base: -2.0},
		{name: "NaN base", base: math.NaN()},
		{name: "infinite base", base: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInverseUserFrequency(dm, tt.base)
			assert.ErrorIs(t, err, ErrInvalidLogBase)
		})
	}

	_, err := NewInverseUserFrequency(nil, 2.0)
	assert.ErrorIs(t, err, ErrNilDataModel)
}

func TestCaseAmplification(t *testing.T) {
	amp, err := NewCaseAmplification(2.0)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, amp.TransformSimilarity(0.5), 1e-12)
	assert.InDelta(t, -0.25, amp.TransformSimilarity(-0.5), 1e-12)
	assert.InDelta(t, 1.0, amp.TransformSimilarity(1.0), 1e-12)
	assert.InDelta(t, -1.0, amp.TransformSimilarity(-1.0), 1e-12)
	assert.Equal(t, 0.0, amp.TransformSimilarity(0.0))
	assert.True(t, math.IsNaN(amp.TransformSimilarity(math.NaN())))
}

func TestNewCaseAmplification_Validation(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
	}{
		{name: "zero", factor: 0},
		{name: "NaN", factor: math.NaN()},
		{name: "infinite", factor: math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCaseAmplification(tt.factor)
			assert.ErrorIs(t, err, ErrInvalidAmplificationFactor)
		})
	}

	// Fractional factors boost weak correlations.
	amp, err := NewCaseAmplification(0.5)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.5), amp.TransformSimilarity(0.5), 1e-12)
}
