package usecase

// Budget is the discovery allowance for one visit. It is computed once from a size snapshot
// and then only counts the links this visit added; writes by anyone else are not seen.
type Budget struct {
	limit    int64
	snapshot int64
	added    int64
}

// NewBudget snapshots the frontier size against keysLimit. keysLimit <= 0 allows nothing.
func NewBudget(keysLimit, size int64) *Budget {
	return &Budget{limit: keysLimit, snapshot: size}
}

// CanGrow reports whether the frontier was within its ceiling when the snapshot was taken.
func (b *Budget) CanGrow() bool {
	return b.snapshot <= b.limit
}

// Allow reports whether one more link may be enqueued.
func (b *Budget) Allow() bool {
	return b.CanGrow() && b.snapshot+b.added < b.limit
}

// Consume records one enqueued link.
func (b *Budget) Consume() {
	b.added++
}

func (b *Budget) Added() int64 {
	return b.added
}

func (b *Budget) Remaining() int64 {
	if r := b.limit - b.snapshot - b.added; r > 0 {
		return r
	}
	return 0
}
