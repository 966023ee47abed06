package service

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/domain"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

func rankerFixture(adv *fakeAdvisor) *RelevanceRanker {
	return NewRelevanceRanker(adv, 4, zap.NewNop())
}

func TestRankFiltersSortsAndTruncates(t *testing.T) {
	adv := newFakeAdvisor()
	adv.scores = map[string]float64{
		"B-1": 0.9,
		"C-1": 0.8,
		"A-1": 0.8,
		"D-1": 0.5,
		"E-1": 0.4,
	}
	source := ticketFixture("SRC-1", "source")
	candidates := []domain.Ticket{
		ticketFixture("B-1", "b"),
		ticketFixture("C-1", "c"),
		ticketFixture("A-1", "a"),
		ticketFixture("D-1", "d"),
		ticketFixture("E-1", "e"),
	}

	related, err := rankerFixture(adv).Rank(context.Background(), &source, candidates, 0.45, 10)
	require.NoError(t, err)

	keys := make([]string, 0, len(related))
	for _, rt := range related {
		keys = append(keys, rt.TicketKey)
	}
	// Equal scores break ties by ascending ticket key.
	if diff := cmp.Diff([]string{"B-1", "A-1", "C-1", "D-1"}, keys); diff != "" {
		t.Fatalf("unexpected ranking (-want +got):\n%s", diff)
	}

	related, err = rankerFixture(adv).Rank(context.Background(), &source, candidates, 0.45, 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "B-1", related[0].TicketKey)
	assert.Equal(t, 0.9, related[0].RelevanceScore)
}

func TestRankMaxResultsZeroShortCircuits(t *testing.T) {
	adv := newFakeAdvisor()
	source := ticketFixture("SRC-1", "source")
	candidates := []domain.Ticket{ticketFixture("B-1", "b")}

	related, err := rankerFixture(adv).Rank(context.Background(), &source, candidates, 0.0, 0)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestRankImpossibleThresholdYieldsEmptySet(t *testing.T) {
	adv := newFakeAdvisor()
	adv.scores = map[string]float64{"B-1": 0.99}
	source := ticketFixture("SRC-1", "source")
	candidates := []domain.Ticket{ticketFixture("B-1", "b")}

	related, err := rankerFixture(adv).Rank(context.Background(), &source, candidates, 1.0, 5)
	require.NoError(t, err)
	assert.NotNil(t, related)
	assert.Empty(t, related)
}

func TestRankDeterministicAcrossRuns(t *testing.T) {
	adv := newFakeAdvisor()
	candidates := make([]domain.Ticket, 0, 12)
	for _, key := range []string{"L-3", "K-1", "M-7", "A-2", "Z-9", "B-4", "Q-5", "C-8", "X-6", "D-1", "Y-2", "E-3"} {
		adv.scores[key] = 0.5
		candidates = append(candidates, ticketFixture(key, "candidate"))
	}
	source := ticketFixture("SRC-1", "source")

	first, err := rankerFixture(adv).Rank(context.Background(), &source, candidates, 0.1, 20)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := rankerFixture(adv).Rank(context.Background(), &source, candidates, 0.1, 20)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("ranking changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestRankPartialScoringFailureSkipsCandidate(t *testing.T) {
	adv := newFakeAdvisor()
	adv.scores = map[string]float64{"B-1": 0.8, "C-1": 0.7}
	source := ticketFixture("SRC-1", "source")

	// A scripted advisor that fails only for one key.
	failing := &selectiveFailAdvisor{fakeAdvisor: adv, failKey: "C-1"}
	related, err := rankerFixture(adv).Rank(context.Background(), &source, []domain.Ticket{
		ticketFixture("B-1", "b"),
		ticketFixture("C-1", "c"),
	}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, related, 2)

	ranker := NewRelevanceRanker(failing, 4, zap.NewNop())
	related, err = ranker.Rank(context.Background(), &source, []domain.Ticket{
		ticketFixture("B-1", "b"),
		ticketFixture("C-1", "c"),
	}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "B-1", related[0].TicketKey)
}

func TestRankAllScoringFailedIsUpstreamFailure(t *testing.T) {
	adv := newFakeAdvisor()
	adv.scoreErr = context.DeadlineExceeded
	source := ticketFixture("SRC-1", "source")

	_, err := rankerFixture(adv).Rank(context.Background(), &source, []domain.Ticket{
		ticketFixture("B-1", "b"),
	}, 0.0, 10)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamFailure))
}

type selectiveFailAdvisor struct {
	*fakeAdvisor
	failKey string
}

func (a *selectiveFailAdvisor) Score(ctx context.Context, source, candidate *domain.Ticket) (float64, error) {
	if candidate.Key == a.failKey {
		return 0, context.DeadlineExceeded
	}
	return a.fakeAdvisor.Score(ctx, source, candidate)
}
