package kg

// Binding is a single variable assignment produced while evaluating a rule
// premise or a query pattern join. Keys are variable names local to the
// rule/query that produced the binding; variable names are never interned
// globally.
type Binding map[string]uint32

// Clone returns a shallow copy safe to extend independently of b.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Extend returns a copy of b with name bound to id. If name is already
// bound to a different id, ok is false and the binding is unchanged
// (conflicting bindings are rejected, not overwritten).
func (b Binding) Extend(name string, id uint32) (Binding, bool) {
	if existing, bound := b[name]; bound {
		return b, existing == id
	}
	out := b.Clone()
	out[name] = id
	return out, true
}

// Substitute resolves a pattern's terms against b, returning the concrete
// triple and whether every variable position was bound.
func (pat TriplePattern) Substitute(b Binding) (Triple, bool) {
	s, ok1 := resolve(pat.S, b)
	p, ok2 := resolve(pat.P, b)
	o, ok3 := resolve(pat.O, b)
	return NewTriple(s, p, o), ok1 && ok2 && ok3
}

func resolve(t Term, b Binding) (uint32, bool) {
	if t.IsConstant() {
		return t.ID(), true
	}
	id, ok := b[t.Name()]
	return id, ok
}

// Vars returns the distinct variable names appearing in the pattern, in
// S, P, O order (duplicates removed).
func (pat TriplePattern) Vars() []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range []Term{pat.S, pat.P, pat.O} {
		if t.IsVariable() && !seen[t.Name()] {
			seen[t.Name()] = true
			out = append(out, t.Name())
		}
	}
	return out
}
