package stream

import (
	"fmt"
	"sort"

	"github.com/wbrown/reasongraph/kg"
)

// StreamOperator selects how a window's relational result is turned back
// into a stream: the whole relation each evaluation (RStream), only the
// rows added since the previous evaluation (IStream), or only the rows
// dropped since the previous evaluation (DStream).
type StreamOperator int

const (
	RStream StreamOperator = iota
	IStream
	DStream
)

// Relation2Stream converts successive relational results into a stream
// according to its StreamOperator, keeping the previous evaluation's rows
// for the IStream/DStream comparisons. Evaluations at the same timestamp
// accumulate into one logical result; a later timestamp rotates the
// current result into the comparison set.
type Relation2Stream struct {
	op  StreamOperator
	old map[string]kg.Binding
	cur map[string]kg.Binding
	ts  int
}

// NewRelation2Stream creates a Relation2Stream starting at startTime.
func NewRelation2Stream(op StreamOperator, startTime int) *Relation2Stream {
	return &Relation2Stream{
		op:  op,
		old: make(map[string]kg.Binding),
		cur: make(map[string]kg.Binding),
		ts:  startTime,
	}
}

// Eval folds rows (the relation at ts) into the operator's state and
// returns the stream it emits for this evaluation.
func (r *Relation2Stream) Eval(rows []kg.Binding, ts int) []kg.Binding {
	switch r.op {
	case RStream:
		return rows
	case IStream:
		r.rotate(ts)
		for _, b := range rows {
			r.cur[rowKey(b)] = b
		}
		var out []kg.Binding
		for _, b := range rows {
			if _, seen := r.old[rowKey(b)]; !seen {
				out = append(out, b)
			}
		}
		return out
	case DStream:
		r.rotate(ts)
		for _, b := range rows {
			r.cur[rowKey(b)] = b
		}
		var out []kg.Binding
		for key, b := range r.old {
			if _, still := r.cur[key]; !still {
				out = append(out, b)
			}
		}
		return out
	default:
		return nil
	}
}

// rotate makes the current result the comparison set once the timestamp
// advances past the one being accumulated.
func (r *Relation2Stream) rotate(ts int) {
	if r.ts < ts {
		r.old, r.cur = r.cur, make(map[string]kg.Binding)
		r.ts = ts
	}
}

func rowKey(b kg.Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%s=%d;", k, b[k])
	}
	return s
}
