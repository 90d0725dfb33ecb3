package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/refresh"
)

var (
	// ErrNotFound is returned when a user or item is unknown to the model.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned when a write is attempted against a
	// read-only data source.
	ErrUnsupported = errors.New("operation not supported")
)

// ErrNoSuchUser indicates an unknown user identity.
//
// It unwraps to ErrNotFound.
type ErrNoSuchUser struct {
	ID UserID
}

func (e *ErrNoSuchUser) Error() string {
	return fmt.Sprintf("no such user: %d", e.ID)
}

func (e *ErrNoSuchUser) Unwrap() error { return ErrNotFound }

// ErrNoSuchItem indicates an unknown item identity.
//
// It unwraps to ErrNotFound.
type ErrNoSuchItem struct {
	ID ItemID
}

func (e *ErrNoSuchItem) Error() string {
	return fmt.Sprintf("no such item: %d", e.ID)
}

func (e *ErrNoSuchItem) Unwrap() error { return ErrNotFound }

// DataAccessError wraps a failure of the underlying data source. The engine
// performs no retries; retry policy belongs to the data source itself.
//
// The original underlying error can be accessed via errors.Unwrap.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// UserID is the stable identifier for a user.
type UserID uint64

// ItemID is the stable identifier for an item.
type ItemID uint64

// Preference is a single observed (user, item, value) rating.
// Value is an unconstrained real number; callers may impose a range.
type Preference struct {
	UserID UserID
	ItemID ItemID
	Value  float64
}

// PreferenceArray holds one user's preferences, ordered ascending by item ID.
// It is an immutable snapshot; callers must not modify it.
type PreferenceArray []Preference

// Find returns the value for the given item, using binary search.
func (pa PreferenceArray) Find(itemID ItemID) (float64, bool) {
	i := sort.Search(len(pa), func(i int) bool { return pa[i].ItemID >= itemID })
	if i < len(pa) && pa[i].ItemID == itemID {
		return pa[i].Value, true
	}
	return 0, false
}

// Values returns the raw rating values in item-ID order.
func (pa PreferenceArray) Values() []float64 {
	vs := make([]float64, len(pa))
	for i, p := range pa {
		vs[i] = p.Value
	}
	return vs
}

// DataModel is the contract between the recommendation engine and its data
// source. Implementations own the atomicity of writes: a reader must never
// observe a half-applied preference change.
//
// All returned slices and bitmaps are snapshots and must be treated as
// read-only.
type DataModel interface {
	// UserIDs returns all known user IDs in ascending order.
	UserIDs() []UserID

	// ItemIDs returns all known item IDs in ascending order.
	ItemIDs() []ItemID

	// PreferencesFromUser returns the user's preferences ordered by item ID.
	PreferencesFromUser(userID UserID) (PreferenceArray, error)

	// PreferencesForItem returns the item's preferences ordered ascending by
	// user ID. The ordering is an invariant; the slope-one merge step and
	// deterministic iteration depend on it.
	PreferencesForItem(itemID ItemID) ([]Preference, error)

	// PreferenceValue returns the value for (userID, itemID).
	// ok is false when no preference has been set for the pair.
	PreferenceValue(userID UserID, itemID ItemID) (value float64, ok bool, err error)

	// ItemIDsFromUser returns the set of items the user has rated.
	ItemIDsFromUser(userID UserID) (*roaring64.Bitmap, error)

	// NumUsers returns the number of users known to the model.
	NumUsers() int

	// NumItems returns the number of items known to the model.
	NumItems() int

	// NumUsersWithPreferenceFor returns how many users have rated the item.
	NumUsersWithPreferenceFor(itemID ItemID) int

	// SetPreference sets or replaces a single preference.
	// Read-only sources return ErrUnsupported.
	SetPreference(userID UserID, itemID ItemID, value float64) error

	// RemovePreference removes a single preference if present.
	// Read-only sources return ErrUnsupported.
	RemovePreference(userID UserID, itemID ItemID) error

	refresh.Refreshable
}
