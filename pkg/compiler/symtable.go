package compiler

import "gocc/pkg/diagnostic"

// varEntry is one (name, stack_depth_at_birth) pair.
type varEntry struct {
	name  string
	depth int
}

// VarTable is the Generator's variable table plus scope-boundary stack.
// There is no global/local split and no struct registry — this
// language has no functions and no type beyond one integer word, so
// every variable lives in exactly one flat, scoped list keyed by its
// birth stack depth.
type VarTable struct {
	vars       []varEntry
	boundaries []int // variable-table sizes recorded at each EnterScope
}

func newVarTable() *VarTable {
	return &VarTable{}
}

// EnterScope records the current table size as a new scope boundary.
func (t *VarTable) EnterScope() {
	t.boundaries = append(t.boundaries, len(t.vars))
}

// ExitScope truncates the table back to the most recent boundary and
// returns how many variables were dropped.
func (t *VarTable) ExitScope() int {
	n := len(t.boundaries)
	if n == 0 {
		panic("compiler: ExitScope called without a matching EnterScope")
	}
	boundary := t.boundaries[n-1]
	t.boundaries = t.boundaries[:n-1]
	dropped := len(t.vars) - boundary
	t.vars = t.vars[:boundary]
	return dropped
}

// Declare adds name at the given birth depth, rejecting a name already
// present in the variable table.
func (t *VarTable) Declare(name string, depth int) error {
	if _, ok := t.find(name); ok {
		return &diagnostic.SemanticError{Message: "Identifier already used: " + name}
	}
	t.vars = append(t.vars, varEntry{name: name, depth: depth})
	return nil
}

// Lookup returns the birth depth of name, or a SemanticError if it was
// never declared.
func (t *VarTable) Lookup(name string) (int, error) {
	if e, ok := t.find(name); ok {
		return e.depth, nil
	}
	return 0, &diagnostic.SemanticError{Message: "Undeclared identifier: " + name}
}

func (t *VarTable) find(name string) (varEntry, bool) {
	for i := len(t.vars) - 1; i >= 0; i-- {
		if t.vars[i].name == name {
			return t.vars[i], true
		}
	}
	return varEntry{}, false
}

// Len returns the number of currently live variables.
func (t *VarTable) Len() int { return len(t.vars) }
