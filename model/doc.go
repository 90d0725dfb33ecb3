// Package model defines core types used throughout Recgo.
//
// # Identity Types
//
//   - UserID: Stable identifier for a user (uint64)
//   - ItemID: Stable identifier for an item (uint64)
//
// # Data Types
//
//   - Preference: A single observed (user, item, value) rating
//   - PreferenceArray: A user's preferences, ordered by item ID
//   - DataModel: The contract every data source implements
//
// # In-Memory Model
//
// MemoryDataModel is the reference DataModel implementation. It keeps a
// dual index (by user and by item) and uses copy-on-write updates so that
// readers always observe a complete snapshot:
//
//	dm := model.NewMemoryDataModel(map[model.UserID][]model.Preference{
//	    1: {{ItemID: 10, Value: 3.0}, {ItemID: 11, Value: 4.5}},
//	    2: {{ItemID: 10, Value: 2.0}},
//	})
package model
