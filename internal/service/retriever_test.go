package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/jira"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

func retrieverFixture(store *fakeStore, source *fakeSource) *CandidateRetriever {
	return NewCandidateRetriever(store, source, 4, zap.NewNop())
}

func TestRetrieveDedupesAcrossKeywords(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.results["login"] = []domain.Ticket{
		ticketFixture("AAA-1", "login page"),
		ticketFixture("AAA-2", "login audit"),
	}
	source.results["throttle"] = []domain.Ticket{
		ticketFixture("AAA-2", "login audit"),
		ticketFixture("AAA-3", "rate limiter"),
	}

	src := ticketFixture("SRC-1", "source")
	candidates, err := retrieverFixture(store, source).Retrieve(context.Background(), &src, []string{"login", "throttle"})
	require.NoError(t, err)

	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"AAA-1", "AAA-2", "AAA-3"}, keys)
}

func TestRetrieveExcludesSourceTicket(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()
	source.results["login"] = []domain.Ticket{
		ticketFixture("SRC-1", "the source itself"),
		ticketFixture("AAA-1", "login page"),
	}

	src := ticketFixture("SRC-1", "source")
	candidates, err := retrieverFixture(store, source).Retrieve(context.Background(), &src, []string{"login"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "AAA-1", candidates[0].Key)
}

func TestRetrieveNoKeywordsIsEmpty(t *testing.T) {
	store := newFakeStore()
	source := newFakeSource()

	src := ticketFixture("SRC-1", "source")
	candidates, err := retrieverFixture(store, source).Retrieve(context.Background(), &src, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRetrievePartialKeywordFailureSucceeds(t *testing.T) {
	store := newFakeStore()
	store.searchErr = context.DeadlineExceeded
	source := newFakeSource()
	source.results["login"] = []domain.Ticket{ticketFixture("AAA-1", "login page")}

	src := ticketFixture("SRC-1", "source")
	candidates, err := retrieverFixture(store, source).Retrieve(context.Background(), &src, []string{"login", "missing"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "AAA-1", candidates[0].Key)
}

func TestRetrieveAllKeywordsFailedIsRetrievalError(t *testing.T) {
	store := newFakeStore()
	store.searchErr = context.DeadlineExceeded
	source := newFakeSource()
	source.searchErr = jira.ErrUnavailable

	src := ticketFixture("SRC-1", "source")
	_, err := retrieverFixture(store, source).Retrieve(context.Background(), &src, []string{"login", "throttle"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRetrievalFailed))
}
