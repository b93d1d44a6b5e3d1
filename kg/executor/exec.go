package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/internal/join"
	"github.com/wbrown/reasongraph/kg/internal/workerpool"
	"github.com/wbrown/reasongraph/kg/planner"
)

// Executor walks a planner.Physical tree and produces a Relation,
// recording counters on ctx as it goes.
type Executor struct {
	idx  join.Index
	dict *kg.Dictionary
	pool *workerpool.Pool
	ctx  Context
}

// NewExecutor creates an Executor reading from idx, decoding filter and
// Bind values through dict. ctx may be nil, in which case a BaseContext
// is used.
func NewExecutor(idx join.Index, dict *kg.Dictionary, pool *workerpool.Pool, ctx Context) *Executor {
	if ctx == nil {
		ctx = &BaseContext{}
	}
	if pool == nil {
		pool = workerpool.New(0)
	}
	return &Executor{idx: idx, dict: dict, pool: pool, ctx: ctx}
}

// Execute runs p and returns its resulting Relation, recording the
// plan's estimated cost and the row count produced.
func (e *Executor) Execute(p planner.Physical) *Relation {
	e.ctx.RecordPlanCost(p.Cost())
	rel := e.run(p)
	e.ctx.RecordRowsOut(rel.Size())
	return rel
}

func (e *Executor) run(p planner.Physical) *Relation {
	switch n := p.(type) {
	case planner.TableScan:
		return e.runScan(n.Pattern, n.Vars())
	case planner.IndexScan:
		return e.runScan(n.Pattern, n.Vars())
	case planner.FilterOp:
		return e.runFilter(n)
	case planner.ProjectionOp:
		return e.runProjection(n)
	case planner.HashJoin:
		return e.runHashJoin(n.Left, n.Right, n.JoinVars, n.BuildLeft, n.Vars())
	case planner.OptimizedHashJoin:
		return e.runHashJoin(n.Left, n.Right, n.JoinVars, n.BuildLeft, n.Vars())
	case planner.NestedLoopJoin:
		return e.runNestedLoopJoin(n)
	case planner.ParallelJoin:
		return e.runParallelJoin(n)
	case planner.StarJoin:
		return e.runStarJoin(n)
	case planner.SubQueryOp:
		inner := e.run(n.Inner)
		return project(inner, n.ProjectedVars)
	case planner.BindOp:
		return e.runBind(n)
	case planner.ValuesOp:
		return &Relation{Columns: n.Vars(), Rows: append([]kg.Binding{}, n.Rows...)}
	case planner.InMemoryBuffer:
		return e.run(n.Input)
	case planner.MLPredict:
		// Model invocation lives outside this executor; a plan carrying
		// MLPredict must be run by a surface that attached a model
		// runtime.
		panic(fmt.Sprintf("executor: MLPredict %q requires a model runtime; none is attached", n.ModelName))
	default:
		panic(fmt.Sprintf("executor: unknown physical node %T", p))
	}
}

func (e *Executor) runScan(pat kg.TriplePattern, vars []string) *Relation {
	rel := &Relation{Columns: vars}
	for _, t := range e.idx.QueryPattern(pat) {
		if b, ok := bindFromTriple(pat, t); ok {
			rel.Append(b)
		}
	}
	e.ctx.RecordPeakBindings(rel.Size())
	return rel
}

func bindFromTriple(pat kg.TriplePattern, t kg.Triple) (kg.Binding, bool) {
	b := kg.Binding{}
	positions := []struct {
		term kg.Term
		val  uint32
	}{{pat.S, t.S}, {pat.P, t.P}, {pat.O, t.O}}
	for _, pos := range positions {
		if !pos.term.IsVariable() {
			continue
		}
		next, ok := b.Extend(pos.term.Name(), pos.val)
		if !ok {
			return nil, false
		}
		b = next
	}
	return b, true
}

func (e *Executor) runFilter(n planner.FilterOp) *Relation {
	input := e.run(n.Input)
	out := &Relation{Columns: input.Columns}
	for _, row := range input.Rows {
		if e.passesCondition(n.Condition, row) {
			out.Append(row)
		}
	}
	return out
}

func (e *Executor) passesCondition(cond planner.Condition, b kg.Binding) bool {
	switch c := cond.(type) {
	case planner.SimpleCondition:
		id, bound := b[c.Variable]
		if !bound {
			return false
		}
		str, ok := e.dict.Decode(id)
		if !ok {
			return false
		}
		return kg.EvaluateFilter(c.FilterCondition, str)
	case planner.AndCondition:
		return e.passesCondition(c.Left, b) && e.passesCondition(c.Right, b)
	case planner.OrCondition:
		return e.passesCondition(c.Left, b) || e.passesCondition(c.Right, b)
	case planner.NotCondition:
		return !e.passesCondition(c.Inner, b)
	default:
		return false
	}
}

func (e *Executor) runProjection(n planner.ProjectionOp) *Relation {
	input := e.run(n.Input)
	return project(input, n.Vars())
}

func project(rel *Relation, vars []string) *Relation {
	out := &Relation{Columns: vars}
	for _, row := range rel.Rows {
		projected := kg.Binding{}
		for _, v := range vars {
			if id, ok := row[v]; ok {
				projected[v] = id
			}
		}
		out.Append(projected)
	}
	return out
}

func (e *Executor) runHashJoin(left, right planner.Physical, joinVars []string, buildLeft bool, outVars []string) *Relation {
	leftRel := e.run(left)
	rightRel := e.run(right)
	return hashJoinRelations(leftRel, rightRel, joinVars, buildLeft, outVars, e.ctx)
}

// maxGroupBindings and maxJoinChunkRows bound worst-case join memory
// under adversarial queries: a build group stops growing at the former,
// and a join's output is truncated at the latter. Either cap firing is
// recorded as a truncation on the Context.
const (
	maxGroupBindings = 1000
	maxJoinChunkRows = 50_000
)

// hashJoinRelations builds a BindingKeyMap over the side buildLeft
// designates (left when true, right otherwise) and probes it with the other, combining
// matching rows keyed by the join-variable tuple.
func hashJoinRelations(leftRel, rightRel *Relation, joinVars []string, buildLeft bool, outVars []string, ctx Context) *Relation {
	build, probe := leftRel, rightRel
	if !buildLeft {
		build, probe = rightRel, leftRel
	}

	index := NewBindingKeyMap()
	for _, row := range build.Rows {
		key := NewBindingKey(row, joinVars)
		if group, ok := index.Get(key); ok && len(group) >= maxGroupBindings {
			if ctx != nil {
				ctx.RecordTruncation()
			}
			continue
		}
		index.Add(key, row)
	}
	if ctx != nil {
		ctx.RecordPeakBindings(index.Len())
	}

	out := &Relation{Columns: outVars}
	for _, probeRow := range probe.Rows {
		key := NewBindingKey(probeRow, joinVars)
		matches, ok := index.Get(key)
		if !ok {
			continue
		}
		for _, buildRow := range matches {
			if out.Size() >= maxJoinChunkRows {
				if ctx != nil {
					ctx.RecordTruncation()
				}
				return out
			}
			combined, ok := combineBindings(buildRow, probeRow)
			if ok {
				out.Append(combined)
			}
		}
	}
	return out
}

func combineBindings(a, b kg.Binding) (kg.Binding, bool) {
	out := a.Clone()
	for k, v := range b {
		if existing, present := out[k]; present && existing != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

func (e *Executor) runNestedLoopJoin(n planner.NestedLoopJoin) *Relation {
	leftRel := e.run(n.Left)
	rightRel := e.run(n.Right)
	out := &Relation{Columns: n.Vars()}
	for _, l := range leftRel.Rows {
		for _, r := range rightRel.Rows {
			if combined, ok := combineBindings(l, r); ok {
				out.Append(combined)
			}
		}
	}
	e.ctx.RecordPeakBindings(leftRel.Size())
	return out
}

// runParallelJoin builds one index over the smaller side serially, then
// splits the probe side across the worker pool, each worker probing that
// shared index, and merges results under one accumulator.
func (e *Executor) runParallelJoin(n planner.ParallelJoin) *Relation {
	leftRel := e.run(n.Left)
	rightRel := e.run(n.Right)

	build, probe := leftRel, rightRel
	if leftRel.Size() > rightRel.Size() {
		build, probe = rightRel, leftRel
	}

	index := NewBindingKeyMap()
	for _, row := range build.Rows {
		index.Add(NewBindingKey(row, n.JoinVars), row)
	}
	e.ctx.RecordPeakBindings(index.Len())

	merged, err := workerpool.Merge(e.pool, probe.Rows,
		func() *[]kg.Binding { rows := []kg.Binding{}; return &rows },
		func(probeRow kg.Binding, acc *[]kg.Binding) error {
			key := NewBindingKey(probeRow, n.JoinVars)
			matches, ok := index.Get(key)
			if !ok {
				return nil
			}
			for _, buildRow := range matches {
				if combined, ok := combineBindings(buildRow, probeRow); ok {
					*acc = append(*acc, combined)
				}
			}
			return nil
		},
		func(dst, src *[]kg.Binding) { *dst = append(*dst, *src...) },
	)
	if err != nil {
		return &Relation{Columns: n.Vars()}
	}
	return &Relation{Columns: n.Vars(), Rows: *merged}
}

// runStarJoin joins Center against every satellite on its own join
// variables, avoiding the repeated re-materialization of Center a chain
// of binary joins would cause.
func (e *Executor) runStarJoin(n planner.StarJoin) *Relation {
	center := e.run(n.Center)
	result := center
	for i, sat := range n.Satellites {
		satRel := e.run(sat)
		joinVars := n.JoinVars[i]
		outVars := dedupStrings(append(append([]string{}, result.Columns...), satRel.Columns...))
		result = hashJoinRelations(result, satRel, joinVars, result.Size() <= satRel.Size(), outVars, e.ctx)
	}
	return result
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// runBind evaluates a small set of built-in functions over Args and
// introduces Output. Arbitrary ML-model invocation is explicitly out of
// scope, so Fn only covers the deterministic string helpers concat, lower
// and upper; a row whose Fn is anything else is dropped.
func (e *Executor) runBind(n planner.BindOp) *Relation {
	input := e.run(n.Input)
	out := &Relation{Columns: n.Vars()}
	for _, row := range input.Rows {
		val, ok := e.evalBindFn(n.Fn, n.Args, row)
		if !ok {
			continue
		}
		extended, ok := row.Extend(n.Output, val)
		if ok {
			out.Append(extended)
		}
	}
	return out
}

func (e *Executor) evalBindFn(fn string, args []string, row kg.Binding) (uint32, bool) {
	dict := e.dict
	strs := make([]string, 0, len(args))
	for _, a := range args {
		id, bound := row[a]
		if !bound {
			return 0, false
		}
		s, ok := dict.Decode(id)
		if !ok {
			return 0, false
		}
		strs = append(strs, s)
	}
	switch fn {
	case "concat":
		return dict.Encode(strings.Join(strs, "")), true
	case "lower":
		if len(strs) != 1 {
			return 0, false
		}
		return dict.Encode(strings.ToLower(strs[0])), true
	case "upper":
		if len(strs) != 1 {
			return 0, false
		}
		return dict.Encode(strings.ToUpper(strs[0])), true
	default:
		return 0, false
	}
}
