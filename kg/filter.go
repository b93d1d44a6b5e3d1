package kg

// FilterOp is a FilterCondition comparison operator.
type FilterOp string

const (
	OpEq  FilterOp = "="
	OpNeq FilterOp = "!="
	OpLt  FilterOp = "<"
	OpGt  FilterOp = ">"
	OpLte FilterOp = "<="
	OpGte FilterOp = ">="
)

// FilterCondition constrains a single variable binding during rule or
// query evaluation. Comparison is numeric if both sides parse as
// floating-point (with epsilon tolerance for equality), otherwise
// lexicographic on the decoded string. An unbound variable fails the
// comparison silently — the binding is rejected, not an error.
type FilterCondition struct {
	Variable string
	Operator FilterOp
	Value    string
}

// NewFilter constructs a FilterCondition.
func NewFilter(variable string, op FilterOp, value string) FilterCondition {
	return FilterCondition{Variable: variable, Operator: op, Value: value}
}
