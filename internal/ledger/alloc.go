package ledger

// ClOrdIDAllocator hands out client order ids. The counter is monotonic and
// skips ids that are still open, which tolerates externally supplied ids; it
// guarantees uniqueness only among currently open orders plus whatever a
// recovered snapshot seeded.
type ClOrdIDAllocator struct {
	last int64
}

// Seed raises the counter to at least max, typically the largest id found in
// a recovered snapshot.
func (a *ClOrdIDAllocator) Seed(max int64) {
	if max > a.last {
		a.last = max
	}
}

// Next returns the next free id. inUse reports whether an id is taken.
func (a *ClOrdIDAllocator) Next(inUse func(int64) bool) int64 {
	a.last++
	if inUse != nil {
		for inUse(a.last) {
			a.last++
		}
	}
	return a.last
}

// Last returns the most recently issued or seeded id.
func (a *ClOrdIDAllocator) Last() int64 {
	return a.last
}
