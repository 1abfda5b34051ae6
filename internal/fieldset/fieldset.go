// Package fieldset extracts the set of fields a GraphQL client actually
// requested for the current resolver invocation. Resolvers thread the
// resulting Selection through fetch planning and response transformation
// as a plain value, so neither depends on the execution engine's objects.
package fieldset

import (
	"sort"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Selection is the tree of requested fields beneath one position in a
// query. All methods are nil-safe: a nil Selection reports nothing as
// requested, which callers treat as "fetch nothing extra".
type Selection struct {
	children map[string]*Selection
}

// New builds a Selection containing the given leaf fields. Tests and
// fallback paths use it to describe a shape without an AST.
func New(names ...string) *Selection {
	s := &Selection{children: make(map[string]*Selection, len(names))}
	for _, name := range names {
		s.children[name] = &Selection{}
	}
	return s
}

// Set attaches a child selection under name, creating the node if needed.
func (s *Selection) Set(name string, child *Selection) *Selection {
	if s.children == nil {
		s.children = make(map[string]*Selection)
	}
	if child == nil {
		child = &Selection{}
	}
	s.children[name] = child
	return s
}

// Has reports whether the field was requested at this position.
func (s *Selection) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.children[name]
	return ok
}

// Child returns the sub-selection for a relation field, or nil if the
// field was not requested.
func (s *Selection) Child(name string) *Selection {
	if s == nil {
		return nil
	}
	return s.children[name]
}

// Union merges two selections into one containing every field requested
// in either. Children sharing a name are merged recursively. When one
// side is empty the other is returned as-is.
func Union(a, b *Selection) *Selection {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	merged := &Selection{children: make(map[string]*Selection, len(a.children)+len(b.children))}
	for name, child := range a.children {
		merged.children[name] = child
	}
	for name, child := range b.children {
		if existing, ok := merged.children[name]; ok {
			merged.children[name] = Union(existing, child)
		} else {
			merged.children[name] = child
		}
	}
	return merged
}

// IsEmpty reports whether no fields were requested.
func (s *Selection) IsEmpty() bool {
	return s == nil || len(s.children) == 0
}

// Fields returns the requested field names in sorted order.
func (s *Selection) Fields() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.children))
	for name := range s.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analyze flattens the resolver's field ASTs into a Selection. Multiple
// positions for the same resolver (aliases) are unioned. Inline fragments
// and named fragment spreads are folded into the same field set; unknown
// fragment names are skipped rather than failing the query.
func Analyze(p graphql.ResolveParams) *Selection {
	root := &Selection{children: make(map[string]*Selection)}
	for _, fieldAST := range p.Info.FieldASTs {
		if fieldAST == nil || fieldAST.SelectionSet == nil {
			continue
		}
		visit(fieldAST.SelectionSet, p.Info.Fragments, root, map[string]bool{})
	}
	return root
}

func visit(set *ast.SelectionSet, fragments map[string]ast.Definition, into *Selection, inFlight map[string]bool) {
	if set == nil {
		return
	}
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if sel.Name == nil || sel.Name.Value == "__typename" {
				continue
			}
			child := into.children[sel.Name.Value]
			if child == nil {
				child = &Selection{children: make(map[string]*Selection)}
				into.children[sel.Name.Value] = child
			}
			if sel.SelectionSet != nil {
				visit(sel.SelectionSet, fragments, child, inFlight)
			}
		case *ast.InlineFragment:
			visit(sel.SelectionSet, fragments, into, inFlight)
		case *ast.FragmentSpread:
			if sel.Name == nil {
				continue
			}
			name := sel.Name.Value
			// Guard against fragment cycles: a spread already being
			// expanded contributes nothing new.
			if name == "" || inFlight[name] {
				continue
			}
			def, ok := fragments[name]
			if !ok {
				continue
			}
			fragment, ok := def.(*ast.FragmentDefinition)
			if !ok || fragment.SelectionSet == nil {
				continue
			}
			inFlight[name] = true
			visit(fragment.SelectionSet, fragments, into, inFlight)
			delete(inFlight, name)
		}
	}
}
