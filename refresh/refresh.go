// Package refresh defines the invalidation capability shared by every
// stateful engine component, and the visited set that keeps a refresh
// broadcast from running forever on cyclic component graphs.
package refresh

// Refreshable is implemented by components holding derived state that can be
// recomputed on demand. Refresh is idempotent and best-effort: recoverable
// failures are logged by the component and never surfaced to the caller;
// subsequent reads may observe stale state until a later refresh succeeds.
type Refreshable interface {
	// Refresh invalidates the component's derived state and propagates to
	// its collaborators through the visited set. Implementations must accept
	// a nil visited set (a fresh one is created).
	Refresh(visited Visited)
}

// Visited tracks component identities already refreshed during one broadcast.
// Components check membership before recursing, so each component refreshes
// at most once per broadcast even when components reference each other.
type Visited map[Refreshable]struct{}

// Once records r as visited and reports whether this was the first visit.
func (v Visited) Once(r Refreshable) bool {
	if r == nil {
		return false
	}
	if _, ok := v[r]; ok {
		return false
	}
	v[r] = struct{}{}
	return true
}

// Recurse refreshes every dependency not yet visited in this broadcast.
// Nil dependencies are skipped.
func Recurse(visited Visited, deps ...Refreshable) {
	for _, d := range deps {
		if d == nil {
			continue
		}
		if visited.Once(d) {
			d.Refresh(visited)
		}
	}
}

// Run starts a refresh broadcast over the given components with a fresh
// visited set.
func Run(components ...Refreshable) {
	Recurse(make(Visited), components...)
}
