package model

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/refresh"
)

// Compile time check to ensure MemoryDataModel satisfies the DataModel interface.
var _ DataModel = (*MemoryDataModel)(nil)

// MemoryDataModel is an in-memory DataModel with a dual index: preferences
// are reachable by user (ordered by item ID) and by item (ordered by user ID).
//
// Writes are copy-on-write: a mutation builds new slices/bitmaps and installs
// them under the lock, so snapshots handed out to readers stay valid and
// readers never observe a half-applied change.
type MemoryDataModel struct {
	mu        sync.RWMutex
	byUser    map[UserID]PreferenceArray
	userItems map[UserID]*roaring64.Bitmap
	byItem    map[ItemID][]Preference
	userIDs   []UserID
	itemIDs   []ItemID
}

// NewMemoryDataModel creates a model from per-user preference lists.
// Input order does not matter; both indexes are sorted on construction.
func NewMemoryDataModel(prefs map[UserID][]Preference) *MemoryDataModel {
	m := &MemoryDataModel{
		byUser:    make(map[UserID]PreferenceArray, len(prefs)),
		userItems: make(map[UserID]*roaring64.Bitmap, len(prefs)),
		byItem:    make(map[ItemID][]Preference),
	}

	for userID, ps := range prefs {
		arr := make(PreferenceArray, 0, len(ps))
		items := roaring64.New()
		for _, p := range ps {
			arr = append(arr, Preference{UserID: userID, ItemID: p.ItemID, Value: p.Value})
			items.Add(uint64(p.ItemID))
		}
		sort.Slice(arr, func(i, j int) bool { return arr[i].ItemID < arr[j].ItemID })
		m.byUser[userID] = arr
		m.userItems[userID] = items
		for _, p := range arr {
			m.byItem[p.ItemID] = append(m.byItem[p.ItemID], p)
		}
	}

	for itemID, ps := range m.byItem {
		sort.Slice(ps, func(i, j int) bool { return ps[i].UserID < ps[j].UserID })
		m.byItem[itemID] = ps
	}

	m.rebuildIDsLocked()

	return m
}

// UserIDs returns all user IDs in ascending order.
func (m *MemoryDataModel) UserIDs() []UserID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userIDs
}

// ItemIDs returns all item IDs in ascending order.
func (m *MemoryDataModel) ItemIDs() []ItemID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.itemIDs
}

// PreferencesFromUser returns the user's preferences ordered by item ID.
func (m *MemoryDataModel) PreferencesFromUser(userID UserID) (PreferenceArray, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	arr, ok := m.byUser[userID]
	if !ok {
		return nil, &ErrNoSuchUser{ID: userID}
	}
	return arr, nil
}

// PreferencesForItem returns the item's preferences ordered ascending by user ID.
func (m *MemoryDataModel) PreferencesForItem(itemID ItemID) ([]Preference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps, ok := m.byItem[itemID]
	if !ok {
		return nil, &ErrNoSuchItem{ID: itemID}
	}
	return ps, nil
}

// PreferenceValue returns the value for (userID, itemID); ok is false when no
// preference is set for the pair.
func (m *MemoryDataModel) PreferenceValue(userID UserID, itemID ItemID) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	arr, ok := m.byUser[userID]
	if !ok {
		return 0, false, &ErrNoSuchUser{ID: userID}
	}
	v, ok := arr.Find(itemID)
	return v, ok, nil
}

// ItemIDsFromUser returns the set of items the user has rated.
// The bitmap is a snapshot; callers must treat it as read-only.
func (m *MemoryDataModel) ItemIDsFromUser(userID UserID) (*roaring64.Bitmap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.userItems[userID]
	if !ok {
		return nil, &ErrNoSuchUser{ID: userID}
	}
	return items, nil
}

// NumUsers returns the number of users known to the model.
func (m *MemoryDataModel) NumUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byUser)
}

// NumItems returns the number of items known to the model.
func (m *MemoryDataModel) NumItems() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byItem)
}

// NumUsersWithPreferenceFor returns how many users have rated the item.
func (m *MemoryDataModel) NumUsersWithPreferenceFor(itemID ItemID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byItem[itemID])
}

// SetPreference sets or replaces a single preference.
func (m *MemoryDataModel) SetPreference(userID UserID, itemID ItemID, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pref := Preference{UserID: userID, ItemID: itemID, Value: value}

	old := m.byUser[userID]
	i := sort.Search(len(old), func(i int) bool { return old[i].ItemID >= itemID })
	replace := i < len(old) && old[i].ItemID == itemID

	// Copy-on-write: readers may still hold the old slice.
	arr := make(PreferenceArray, 0, len(old)+1)
	arr = append(arr, old[:i]...)
	arr = append(arr, pref)
	if replace {
		arr = append(arr, old[i+1:]...)
	} else {
		arr = append(arr, old[i:]...)
	}
	m.byUser[userID] = arr

	items := roaring64.New()
	if prev, ok := m.userItems[userID]; ok {
		items = prev.Clone()
	}
	items.Add(uint64(itemID))
	m.userItems[userID] = items

	oldItem := m.byItem[itemID]
	j := sort.Search(len(oldItem), func(j int) bool { return oldItem[j].UserID >= userID })
	replaceItem := j < len(oldItem) && oldItem[j].UserID == userID
	itemArr := make([]Preference, 0, len(oldItem)+1)
	itemArr = append(itemArr, oldItem[:j]...)
	itemArr = append(itemArr, pref)
	if replaceItem {
		itemArr = append(itemArr, oldItem[j+1:]...)
	} else {
		itemArr = append(itemArr, oldItem[j:]...)
	}
	m.byItem[itemID] = itemArr

	if !replace || !replaceItem {
		m.rebuildIDsLocked()
	}

	return nil
}

// RemovePreference removes a single preference if present. Removing the last
// preference of a user (or for an item) removes the user (or item) itself.
func (m *MemoryDataModel) RemovePreference(userID UserID, itemID ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.byUser[userID]
	if !ok {
		return &ErrNoSuchUser{ID: userID}
	}
	i := sort.Search(len(old), func(i int) bool { return old[i].ItemID >= itemID })
	if i >= len(old) || old[i].ItemID != itemID {
		return nil
	}

	if len(old) == 1 {
		delete(m.byUser, userID)
		delete(m.userItems, userID)
	} else {
		arr := make(PreferenceArray, 0, len(old)-1)
		arr = append(arr, old[:i]...)
		arr = append(arr, old[i+1:]...)
		m.byUser[userID] = arr

		items := m.userItems[userID].Clone()
		items.Remove(uint64(itemID))
		m.userItems[userID] = items
	}

	oldItem := m.byItem[itemID]
	j := sort.Search(len(oldItem), func(j int) bool { return oldItem[j].UserID >= userID })
	if j < len(oldItem) && oldItem[j].UserID == userID {
		if len(oldItem) == 1 {
			delete(m.byItem, itemID)
		} else {
			itemArr := make([]Preference, 0, len(oldItem)-1)
			itemArr = append(itemArr, oldItem[:j]...)
			itemArr = append(itemArr, oldItem[j+1:]...)
			m.byItem[itemID] = itemArr
		}
	}

	m.rebuildIDsLocked()

	return nil
}

// Refresh is a no-op: the model holds ground truth, not derived state.
func (m *MemoryDataModel) Refresh(visited refresh.Visited) {}

func (m *MemoryDataModel) rebuildIDsLocked() {
	userIDs := make([]UserID, 0, len(m.byUser))
	for id := range m.byUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	m.userIDs = userIDs

	itemIDs := make([]ItemID, 0, len(m.byItem))
	for id := range m.byItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
	m.itemIDs = itemIDs
}
