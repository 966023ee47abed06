package jira

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxFetchIsStablePerKey(t *testing.T) {
	src := NewSandboxSource(5)

	first, err := src.Fetch(context.Background(), "ABC-1")
	require.NoError(t, err)
	second, err := src.Fetch(context.Background(), "ABC-1")
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.SourceID, second.SourceID)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestSandboxSearchIsStablePerQuery(t *testing.T) {
	src := NewSandboxSource(3)

	first, err := src.Search(context.Background(), "login")
	require.NoError(t, err)
	second, err := src.Search(context.Background(), "login")
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
	}

	other, err := src.Search(context.Background(), "billing")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Key, other[0].Key)
}
