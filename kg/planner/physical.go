package planner

import "github.com/wbrown/reasongraph/kg"

// Physical is a node of the executable plan the search in search.go
// chooses: a Logical node's Scan/Join/etc. resolved to one concrete
// strategy with an estimated cost and cardinality attached.
type Physical interface {
	physicalNode()
	Cost() float64
	Cardinality() int
	Vars() []string
}

// TableScan walks every triple and filters in place; chosen when no
// position of the pattern is bound.
type TableScan struct {
	Pattern        kg.TriplePattern
	card           int
	cost           float64
	outputVars     []string
}

// IndexScan resolves the pattern through one of the six permutation
// indexes; chosen whenever at least one position is bound.
type IndexScan struct {
	Pattern    kg.TriplePattern
	card       int
	cost       float64
	outputVars []string
}

// FilterOp applies Condition to Input's rows.
type FilterOp struct {
	Input      Physical
	Condition  Condition
	card       int
	cost       float64
	outputVars []string
}

// ProjectionOp keeps only Vars from Input's rows.
type ProjectionOp struct {
	Input      Physical
	outputVars []string
	card       int
	cost       float64
}

// HashJoin builds a hash table over the cheaper side and probes it with
// the other; the baseline join strategy.
type HashJoin struct {
	Left, Right Physical
	JoinVars    []string
	BuildLeft   bool
	card        int
	cost        float64
	outputVars  []string
}

// OptimizedHashJoin is HashJoin at half the per-row overhead. The planner
// offers it for every join, so it undercuts HashJoin whenever either
// input has rows.
type OptimizedHashJoin struct {
	Left, Right Physical
	JoinVars    []string
	BuildLeft   bool
	card        int
	cost        float64
	outputVars  []string
}

// NestedLoopJoin probes Right once per Left row; only offered when both
// sides fall below nestedLoopMaxArm rows.
type NestedLoopJoin struct {
	Left, Right Physical
	JoinVars    []string
	card        int
	cost        float64
	outputVars  []string
}

// ParallelJoin is a HashJoin whose probe phase runs across the worker
// pool (the build index is filled serially); cost only improves on HashJoin when both inputs
// are bare scans with no upstream operator to serialize behind.
type ParallelJoin struct {
	Left, Right Physical
	JoinVars    []string
	card        int
	cost        float64
	outputVars  []string
}

// StarJoin joins one Center relation against several Satellites sharing a
// join variable with it, avoiding Center's repeated materialization a
// chain of binary joins would otherwise cause.
type StarJoin struct {
	Center     Physical
	Satellites []Physical
	JoinVars   [][]string
	card       int
	cost       float64
	outputVars []string
}

// SubQueryOp executes Inner and exposes only ProjectedVars upward.
type SubQueryOp struct {
	Inner         Physical
	ProjectedVars []string
	card          int
	cost          float64
}

// BindOp evaluates Fn over Args and introduces Output.
type BindOp struct {
	Input      Physical
	Fn         string
	Args       []string
	Output     string
	card       int
	cost       float64
	outputVars []string
}

// ValuesOp is a literal relation.
type ValuesOp struct {
	ValuesVars []string
	Rows       []kg.Binding
	card       int
	cost       float64
}

// InMemoryBuffer materializes Input's rows once, used when a downstream
// operator (e.g. the build side of a join) needs repeated random access
// rather than a single streaming pass.
type InMemoryBuffer struct {
	Input      Physical
	card       int
	cost       float64
	outputVars []string
}

// MLPredict feeds InputVars from each of Input's rows to an external
// model and introduces the prediction as Output. The operator is part of
// the plan algebra only: actually invoking a model is a collaborator's
// job, and the executor rejects the node when no model runtime is
// attached.
type MLPredict struct {
	Input     Physical
	ModelName string
	ModelPath string
	InputVars []string
	Output    string
	card      int
	cost      float64
}

func (n TableScan) physicalNode()          {}
func (n IndexScan) physicalNode()          {}
func (n FilterOp) physicalNode()           {}
func (n ProjectionOp) physicalNode()       {}
func (n HashJoin) physicalNode()           {}
func (n OptimizedHashJoin) physicalNode()  {}
func (n NestedLoopJoin) physicalNode()     {}
func (n ParallelJoin) physicalNode()       {}
func (n StarJoin) physicalNode()           {}
func (n SubQueryOp) physicalNode()         {}
func (n BindOp) physicalNode()             {}
func (n ValuesOp) physicalNode()           {}
func (n InMemoryBuffer) physicalNode()     {}
func (n MLPredict) physicalNode()          {}

func (n TableScan) Cost() float64         { return n.cost }
func (n IndexScan) Cost() float64         { return n.cost }
func (n FilterOp) Cost() float64          { return n.cost }
func (n ProjectionOp) Cost() float64      { return n.cost }
func (n HashJoin) Cost() float64          { return n.cost }
func (n OptimizedHashJoin) Cost() float64 { return n.cost }
func (n NestedLoopJoin) Cost() float64    { return n.cost }
func (n ParallelJoin) Cost() float64      { return n.cost }
func (n StarJoin) Cost() float64          { return n.cost }
func (n SubQueryOp) Cost() float64        { return n.cost }
func (n BindOp) Cost() float64            { return n.cost }
func (n ValuesOp) Cost() float64          { return n.cost }
func (n InMemoryBuffer) Cost() float64    { return n.cost }
func (n MLPredict) Cost() float64         { return n.cost }

func (n TableScan) Cardinality() int         { return n.card }
func (n IndexScan) Cardinality() int         { return n.card }
func (n FilterOp) Cardinality() int          { return n.card }
func (n ProjectionOp) Cardinality() int      { return n.card }
func (n HashJoin) Cardinality() int          { return n.card }
func (n OptimizedHashJoin) Cardinality() int { return n.card }
func (n NestedLoopJoin) Cardinality() int    { return n.card }
func (n ParallelJoin) Cardinality() int      { return n.card }
func (n StarJoin) Cardinality() int          { return n.card }
func (n SubQueryOp) Cardinality() int        { return n.card }
func (n BindOp) Cardinality() int            { return n.card }
func (n ValuesOp) Cardinality() int          { return n.card }
func (n InMemoryBuffer) Cardinality() int    { return n.card }
func (n MLPredict) Cardinality() int         { return n.card }

func (n TableScan) Vars() []string         { return n.outputVars }
func (n IndexScan) Vars() []string         { return n.outputVars }
func (n FilterOp) Vars() []string          { return n.outputVars }
func (n ProjectionOp) Vars() []string      { return n.outputVars }
func (n HashJoin) Vars() []string          { return n.outputVars }
func (n OptimizedHashJoin) Vars() []string { return n.outputVars }
func (n NestedLoopJoin) Vars() []string    { return n.outputVars }
func (n ParallelJoin) Vars() []string      { return n.outputVars }
func (n StarJoin) Vars() []string          { return n.outputVars }
func (n SubQueryOp) Vars() []string        { return n.ProjectedVars }
func (n BindOp) Vars() []string            { return n.outputVars }
func (n ValuesOp) Vars() []string          { return n.ValuesVars }
func (n InMemoryBuffer) Vars() []string    { return n.outputVars }

func (n MLPredict) Vars() []string {
	if n.Input == nil {
		return []string{n.Output}
	}
	return dedupStrings(append(append([]string{}, n.Input.Vars()...), n.Output))
}

// NewMLPredict wraps input in an MLPredict node. The planner never emits
// one on its own; query surfaces that parsed an ML.PREDICT clause attach
// it above the plan they got back.
func NewMLPredict(input Physical, modelName, modelPath string, inputVars []string, output string) MLPredict {
	card, cost := 0, 0.0
	if input != nil {
		card = input.Cardinality()
		cost = input.Cost() + float64(card)
	}
	return MLPredict{
		Input: input, ModelName: modelName, ModelPath: modelPath,
		InputVars: inputVars, Output: output,
		card: card, cost: cost,
	}
}

// isScan reports whether p is a bare TableScan or IndexScan, the
// condition under which ParallelJoin beats HashJoin.
func isScan(p Physical) bool {
	switch p.(type) {
	case TableScan, IndexScan:
		return true
	default:
		return false
	}
}
