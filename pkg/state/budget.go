package state

// CallbackBudget limits how many deferred callbacks run per frame.
// Callbacks over the limit keep their order and run in the following frames.
// It protects a frame loop from callback storms where callbacks keep
// scheduling more callbacks.
type CallbackBudget struct {
	maxPerFrame int

	// deferredTotal counts callbacks carried over since creation.
	deferredTotal int
	// framesThrottled counts frames that hit the limit.
	framesThrottled int
}

// NewCallbackBudget returns a budget allowing maxPerFrame callbacks per frame.
// A non-positive limit disables the budget.
func NewCallbackBudget(maxPerFrame int) *CallbackBudget {
	if maxPerFrame <= 0 {
		return nil
	}
	return &CallbackBudget{maxPerFrame: maxPerFrame}
}

// allow returns how many of n queued callbacks may run this frame.
func (b *CallbackBudget) allow(n int) int {
	if b == nil || n <= b.maxPerFrame {
		return n
	}
	b.deferredTotal += n - b.maxPerFrame
	b.framesThrottled++
	return b.maxPerFrame
}

// BudgetStats reports budget usage.
type BudgetStats struct {
	MaxPerFrame     int
	DeferredTotal   int
	FramesThrottled int
}

// Stats returns current budget usage statistics.
func (b *CallbackBudget) Stats() BudgetStats {
	if b == nil {
		return BudgetStats{}
	}
	return BudgetStats{
		MaxPerFrame:     b.maxPerFrame,
		DeferredTotal:   b.deferredTotal,
		FramesThrottled: b.framesThrottled,
	}
}
