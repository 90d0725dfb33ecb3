// Package top provides a bounded top-N collector with deterministic
// tie-breaking, shared by neighborhood selection and recommendation ranking.
package top

import "sort"

// Item is a scored candidate.
// Value-based (no pointers) for cache locality.
type Item struct {
	ID    uint64
	Value float64
}

// Collector keeps the best n items by value. Ties are broken by ascending ID
// so results are deterministic regardless of insertion order.
//
// Internally a min-heap of the kept items: the root is the weakest candidate
// still retained and is replaced when a stronger one arrives.
type Collector struct {
	n     int
	items []Item
}

// NewCollector creates a collector retaining at most n items. n must be >= 1.
func NewCollector(n int) *Collector {
	capHint := n
	if capHint > 1024 {
		capHint = 1024
	}
	return &Collector{
		n:     n,
		items: make([]Item, 0, capHint),
	}
}

// Add offers an item to the collector. If the collector is full and the item
// is no better than the current weakest, it is skipped; otherwise the weakest
// is replaced.
func (c *Collector) Add(it Item) {
	if len(c.items) < c.n {
		c.items = append(c.items, it)
		c.siftUp(len(c.items) - 1)
		return
	}

	if worse(it, c.items[0]) {
		return
	}
	c.items[0] = it
	c.siftDown(0)
}

// Len returns the number of items currently retained.
func (c *Collector) Len() int {
	return len(c.items)
}

// Ranked returns the retained items best-first: descending value, ties by
// ascending ID. The collector must not be reused afterwards.
func (c *Collector) Ranked() []Item {
	items := c.items
	sort.Slice(items, func(i, j int) bool { return worse(items[j], items[i]) })
	return items
}

// worse reports whether a is a weaker candidate than b.
func worse(a, b Item) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.ID > b.ID
}

func (c *Collector) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(c.items[i], c.items[parent]) {
			break
		}
		c.items[i], c.items[parent] = c.items[parent], c.items[i]
		i = parent
	}
}

func (c *Collector) siftDown(i int) {
	n := len(c.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		weakest := left
		if right := left + 1; right < n && worse(c.items[right], c.items[left]) {
			weakest = right
		}
		if !worse(c.items[weakest], c.items[i]) {
			break
		}
		c.items[i], c.items[weakest] = c.items[weakest], c.items[i]
		i = weakest
	}
}
