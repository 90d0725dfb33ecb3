package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceArray_Find(t *testing.T) {
	pa := PreferenceArray{
		{UserID: 1, ItemID: 10, Value: 3.0},
		{UserID: 1, ItemID: 20, Value: 4.0},
		{UserID: 1, ItemID: 30, Value: 5.0},
	}

	v, ok := pa.Find(20)
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, ok = pa.Find(25)
	assert.False(t, ok)

	_, ok = pa.Find(5)
	assert.False(t, ok)

	_, ok = pa.Find(40)
	assert.False(t, ok)
}

func TestPreferenceArray_Values(t *testing.T) {
	pa := PreferenceArray{
		{ItemID: 10, Value: 1.0},
		{ItemID: 20, Value: 2.0},
	}
	assert.Equal(t, []float64{1.0, 2.0}, pa.Values())
	assert.Empty(t, PreferenceArray(nil).Values())
}

func TestErrors_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &ErrNoSuchUser{ID: 7}, ErrNotFound)
	assert.ErrorIs(t, &ErrNoSuchItem{ID: 7}, ErrNotFound)
	assert.Contains(t, (&ErrNoSuchUser{ID: 7}).Error(), "7")

	underlying := errors.New("connection reset")
	dae := &DataAccessError{Op: "PreferencesFromUser", Err: underlying}
	assert.ErrorIs(t, dae, underlying)
	assert.Contains(t, dae.Error(), "PreferencesFromUser")
}
