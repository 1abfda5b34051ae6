package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World!", "hello-world"},
		{"  Already--Hyphenated  ", "already-hyphenated"},
		{"Mixed CASE & Symbols (2024)", "mixed-case-symbols-2024"},
		{"!!!", "untitled"},
		{"unicode café post", "unicode-café-post"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.title), "title %q", tt.title)
	}
}

func TestGenerateFirstCandidateFree(t *testing.T) {
	got, err := Generate(context.Background(), "Hello World!", func(ctx context.Context, s string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", got)
}

func TestGenerateSuffixOnCollision(t *testing.T) {
	taken := map[string]bool{"hello-world": true, "hello-world-1": true}
	var checked []string
	got, err := Generate(context.Background(), "Hello World!", func(ctx context.Context, s string) (bool, error) {
		checked = append(checked, s)
		return taken[s], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", got)
	assert.Equal(t, []string{"hello-world", "hello-world-1", "hello-world-2"}, checked)
}

func TestGeneratePropagatesCheckError(t *testing.T) {
	_, err := Generate(context.Background(), "Hello", func(ctx context.Context, s string) (bool, error) {
		return false, errors.New("store unavailable")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}
