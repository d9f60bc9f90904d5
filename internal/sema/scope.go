// Package sema implements the two-walk semantic analyzer:
// a declaration walk that populates scopes, and a usage walk that
// resolves every identifier and call to a binding.
package sema

import (
	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
)

// Scopes are represented as a flat arena with parent indices rather than
// a tree of owned pointers:
// cheap to snapshot, no cyclic ownership, and a natural fit for a
// single-pass-then-discard analyzer.
type scopeID int

const noParent scopeID = -1

type scope struct {
	parent   scopeID
	bindings map[string]*ast.Binding
	// isFunctionBoundary marks a scope introduced by a FunctionDef: Yul
	// forbids capturing outer locals, so name resolution stops walking
	// parents at this boundary once it has crossed into a scope that is
	// NOT itself part of the same function body.
	isFunctionBoundary bool
}

// arena owns every scope created during analysis of one compilation
// unit. Discarded after code generation.
type arena struct {
	scopes []scope
}

func newArena() *arena {
	a := &arena{}
	a.scopes = append(a.scopes, scope{
		parent:   noParent,
		bindings: builtinBindings(),
	})
	return a
}

const rootScope scopeID = 0

func (a *arena) push(parent scopeID, functionBoundary bool) scopeID {
	a.scopes = append(a.scopes, scope{
		parent:             parent,
		bindings:           make(map[string]*ast.Binding),
		isFunctionBoundary: functionBoundary,
	})
	return scopeID(len(a.scopes) - 1)
}

func (a *arena) declare(id scopeID, name string, b *ast.Binding) (redeclared bool) {
	s := &a.scopes[id]
	if _, exists := s.bindings[name]; exists {
		return true
	}
	s.bindings[name] = b
	return false
}

// lookupVar resolves a variable reference, honoring the capture
// prohibition: once the walk crosses a function boundary, only
// functions and builtins remain visible, not the enclosing function's
// locals.
func (a *arena) lookupVar(id scopeID, name string) (*ast.Binding, bool) {
	crossedBoundary := false
	cur := id
	for cur != noParent {
		s := &a.scopes[cur]
		if b, ok := s.bindings[name]; ok {
			if crossedBoundary && b.Kind == ast.BindingVar {
				return nil, false
			}
			return b, true
		}
		if s.isFunctionBoundary {
			crossedBoundary = true
		}
		cur = s.parent
	}
	return nil, false
}

// builtinBindings seeds the root scope's map. The object's top-level
// functions and variables are declared into that map during analysis.
func builtinBindings() map[string]*ast.Binding {
	// Builtins resolve through the builtins.Table directly during the
	// usage walk (see resolveCall); the root scope intentionally starts
	// empty so user declarations never accidentally shadow a name the
	// map pre-populated.
	return make(map[string]*ast.Binding)
}
