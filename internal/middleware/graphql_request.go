package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// docStats summarizes one operation of a parsed GraphQL document.
type docStats struct {
	operation string
	fields    int
	depth     int
	variables int
}

// readGraphQLQuery pulls the query text and operation name out of a
// request without consuming it: the POST body is restored afterwards so
// the GraphQL handler downstream can read it again.
func readGraphQLQuery(r *http.Request) (query, operationName string) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		return q.Get("query"), q.Get("operationName")
	case http.MethodPost:
	default:
		return "", ""
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if strings.Contains(r.Header.Get("Content-Type"), "application/graphql") {
		return string(body), ""
	}

	var payload struct {
		Query         string `json:"query"`
		OperationName string `json:"operationName"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.Query, payload.OperationName
}

// analyzeDocument parses the query and summarizes the named operation,
// or the first one when operationName is empty. A query that parses but
// contains no matching operation yields (nil, nil).
func analyzeDocument(query, operationName string) (*docStats, error) {
	if query == "" {
		return nil, nil
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "graphql"}),
	})
	if err != nil {
		return nil, err
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	var op, first *ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		case *ast.OperationDefinition:
			if first == nil {
				first = d
			}
			if operationName != "" && d.Name != nil && d.Name.Value == operationName {
				op = d
			}
		}
	}
	if op == nil {
		if operationName != "" {
			return nil, nil
		}
		op = first
	}
	if op == nil {
		return nil, nil
	}

	stats := &docStats{
		operation: string(op.Operation),
		variables: len(op.VariableDefinitions),
	}
	if op.SelectionSet != nil {
		stats.fields, stats.depth = walkSelections(op.SelectionSet, fragments, 1, map[string]bool{}, map[string]bool{})
	}
	return stats, nil
}

// walkSelections counts fields and tracks the deepest nesting level.
// Fragment spreads expand once per traversal; the active set breaks
// cycles between mutually-referencing fragments.
func walkSelections(set *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, depth int, seen, active map[string]bool) (fields, maxDepth int) {
	if set == nil {
		return 0, depth - 1
	}

	maxDepth = depth
	descend := func(nested *ast.SelectionSet, nestedDepth int) {
		n, d := walkSelections(nested, fragments, nestedDepth, seen, active)
		fields += n
		if d > maxDepth {
			maxDepth = d
		}
	}

	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			fields++
			if sel.SelectionSet != nil {
				descend(sel.SelectionSet, depth+1)
			}
		case *ast.InlineFragment:
			descend(sel.SelectionSet, depth)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			if seen[name] || active[name] {
				continue
			}
			seen[name] = true
			active[name] = true
			if frag, ok := fragments[name]; ok {
				descend(frag.SelectionSet, depth)
			}
			delete(active, name)
		}
	}
	return fields, maxDepth
}
