package kg

import "fmt"

// Term is a tagged variant: either a Variable, meaningful only within the
// scope of one rule or query, or a Constant, a dictionary id meaningful
// globally. Construct with Var or Const.
type Term struct {
	name     string // non-empty iff this is a Variable
	constant uint32
	isVar    bool
}

// Var creates a variable term with the given name.
func Var(name string) Term { return Term{name: name, isVar: true} }

// Const creates a constant term from a dictionary id.
func Const(id uint32) Term { return Term{constant: id} }

// IsVariable reports whether t is a Variable.
func (t Term) IsVariable() bool { return t.isVar }

// IsConstant reports whether t is a Constant.
func (t Term) IsConstant() bool { return !t.isVar }

// Name returns the variable name; valid only when IsVariable() is true.
func (t Term) Name() string { return t.name }

// ID returns the constant dictionary id; valid only when IsConstant() is true.
func (t Term) ID() uint32 { return t.constant }

// String renders the term for debugging: "?name" for variables, the raw id
// for constants.
func (t Term) String() string {
	if t.isVar {
		return "?" + t.name
	}
	return fmt.Sprintf("%d", t.constant)
}

// Equal compares two terms structurally: two variables are equal iff their
// names match, two constants iff their ids match.
func (t Term) Equal(other Term) bool {
	if t.isVar != other.isVar {
		return false
	}
	if t.isVar {
		return t.name == other.name
	}
	return t.constant == other.constant
}
