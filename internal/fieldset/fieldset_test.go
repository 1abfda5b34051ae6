package fieldset

import (
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseRootField parses a query document and returns the first root field
// of the first operation plus the document's fragment definitions, shaped
// the way graphql-go hands them to a resolver.
func parseRootField(t *testing.T, query string) graphql.ResolveParams {
	t.Helper()

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "test"}),
	})
	require.NoError(t, err)

	fragments := map[string]ast.Definition{}
	var rootField *ast.Field
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			if rootField == nil && d.SelectionSet != nil && len(d.SelectionSet.Selections) > 0 {
				field, ok := d.SelectionSet.Selections[0].(*ast.Field)
				require.True(t, ok)
				rootField = field
			}
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		}
	}
	require.NotNil(t, rootField)

	return graphql.ResolveParams{
		Info: graphql.ResolveInfo{
			FieldASTs: []*ast.Field{rootField},
			Fragments: fragments,
		},
	}
}

func TestAnalyzeFlatSelection(t *testing.T) {
	params := parseRootField(t, `{ blog(id: 1) { id title image } }`)

	sel := Analyze(params)
	assert.True(t, sel.Has("id"))
	assert.True(t, sel.Has("title"))
	assert.True(t, sel.Has("image"))
	assert.False(t, sel.Has("author"))
	assert.Equal(t, []string{"id", "image", "title"}, sel.Fields())
}

func TestAnalyzeNestedSelection(t *testing.T) {
	params := parseRootField(t, `{
		blog(id: 1) {
			title
			author { username image }
			comments { content user { username } }
		}
	}`)

	sel := Analyze(params)
	author := sel.Child("author")
	require.NotNil(t, author)
	assert.True(t, author.Has("username"))
	assert.True(t, author.Has("image"))
	assert.False(t, author.Has("email"))

	comments := sel.Child("comments")
	require.NotNil(t, comments)
	assert.True(t, comments.Child("user").Has("username"))
}

func TestAnalyzeNamedFragment(t *testing.T) {
	params := parseRootField(t, `
		query { blogs { ...BlogFields } }
		fragment BlogFields on Blog {
			id
			image
			author { username }
		}
	`)

	sel := Analyze(params)
	assert.True(t, sel.Has("id"))
	assert.True(t, sel.Has("image"))
	assert.True(t, sel.Child("author").Has("username"))
}

func TestAnalyzeInlineFragment(t *testing.T) {
	params := parseRootField(t, `{
		blog(id: 1) {
			... on Blog { slug }
			title
		}
	}`)

	sel := Analyze(params)
	assert.True(t, sel.Has("slug"))
	assert.True(t, sel.Has("title"))
}

func TestAnalyzeFragmentCycleTerminates(t *testing.T) {
	params := parseRootField(t, `
		query { blogs { ...A } }
		fragment A on Blog { id ...B }
		fragment B on Blog { title ...A }
	`)

	sel := Analyze(params)
	assert.True(t, sel.Has("id"))
	assert.True(t, sel.Has("title"))
}

func TestAnalyzeUnknownFragmentSkipped(t *testing.T) {
	params := parseRootField(t, `query { blogs { id ...Missing } }`)

	sel := Analyze(params)
	assert.True(t, sel.Has("id"))
	assert.Equal(t, []string{"id"}, sel.Fields())
}

func TestNilSelectionIsSafe(t *testing.T) {
	var sel *Selection
	assert.False(t, sel.Has("anything"))
	assert.Nil(t, sel.Child("anything"))
	assert.True(t, sel.IsEmpty())
	assert.Nil(t, sel.Fields())
}

func TestUnionMergesRecursively(t *testing.T) {
	a := New("username").Set("blog", New("title"))
	b := New("image").Set("blog", New("slug"))

	merged := Union(a, b)
	assert.True(t, merged.Has("username"))
	assert.True(t, merged.Has("image"))
	assert.True(t, merged.Child("blog").Has("title"))
	assert.True(t, merged.Child("blog").Has("slug"))
}

func TestUnionEmptySides(t *testing.T) {
	sel := New("id")
	assert.Equal(t, sel, Union(nil, sel))
	assert.Equal(t, sel, Union(sel, nil))
	assert.True(t, Union(nil, nil).IsEmpty())
}

func TestManualConstruction(t *testing.T) {
	sel := New("id", "title").Set("author", New("image"))
	assert.True(t, sel.Has("id"))
	assert.True(t, sel.Child("author").Has("image"))
	assert.False(t, sel.Child("author").Has("username"))
}
