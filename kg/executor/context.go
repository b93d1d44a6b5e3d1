package executor

// Context tracks per-query counters: the optimizer's cost estimate for
// the chosen plan, the number of rows the query ultimately produced, and
// the largest binding set any single operator held at once. BaseContext
// is the silent implementation for the hot path; CountingContext records,
// for tests and diagnostics.
type Context interface {
	RecordPlanCost(cost float64)
	RecordRowsOut(n int)
	RecordPeakBindings(n int)
	RecordTruncation()
	Counters() Counters
}

// Counters is a snapshot of a Context's recorded values.
type Counters struct {
	PlanCostEstimate float64
	RowsOut          int
	PeakBindingCount int
	Truncations      int
}

// BaseContext is a no-op Context, used when nobody is watching.
type BaseContext struct{}

func (*BaseContext) RecordPlanCost(float64) {}
func (*BaseContext) RecordRowsOut(int)      {}
func (*BaseContext) RecordPeakBindings(int) {}
func (*BaseContext) RecordTruncation()      {}
func (*BaseContext) Counters() Counters     { return Counters{} }

// CountingContext records every counter.
type CountingContext struct {
	counters Counters
}

// NewCountingContext creates a CountingContext with zeroed counters.
func NewCountingContext() *CountingContext { return &CountingContext{} }

func (c *CountingContext) RecordPlanCost(cost float64) { c.counters.PlanCostEstimate = cost }
func (c *CountingContext) RecordRowsOut(n int)         { c.counters.RowsOut = n }

func (c *CountingContext) RecordPeakBindings(n int) {
	if n > c.counters.PeakBindingCount {
		c.counters.PeakBindingCount = n
	}
}

func (c *CountingContext) RecordTruncation() { c.counters.Truncations++ }

func (c *CountingContext) Counters() Counters { return c.counters }
