package matching

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingMatcher records how many times Match runs.
type countingMatcher struct {
	result *Result
	calls  int
}

func (m *countingMatcher) Match(_ context.Context, _ Request) (*Result, error) {
	m.calls++
	return m.result, nil
}

func (m *countingMatcher) Strategy() string { return StrategySchedule }

func newCacheFixture(t *testing.T, inner Matcher) (*CachedMatcher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	return NewCachedMatcher(inner, client, time.Minute, &logger), mr
}

func TestCachedMatcherHit(t *testing.T) {
	ctx := context.Background()
	inner := &countingMatcher{result: &Result{MasterID: 5, Score: 42}}
	cached, _ := newCacheFixture(t, inner)

	req := Request{Specialization: "plumbing", City: "Omsk", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}

	first, err := cached.Match(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cached.Match(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.MasterID, second.MasterID)
	assert.Equal(t, 1, inner.calls, "second lookup must come from cache")
}

func TestCachedMatcherKeyIncludesRequest(t *testing.T) {
	ctx := context.Background()
	inner := &countingMatcher{result: &Result{MasterID: 5, Score: 42}}
	cached, _ := newCacheFixture(t, inner)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := cached.Match(ctx, Request{Specialization: "plumbing", City: "Omsk", Date: date})
	require.NoError(t, err)
	_, err = cached.Match(ctx, Request{Specialization: "plumbing", City: "Tomsk", Date: date})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "different city is a different key")
}

func TestCachedMatcherSkipsNegativeResults(t *testing.T) {
	ctx := context.Background()
	inner := &countingMatcher{result: nil}
	cached, _ := newCacheFixture(t, inner)

	req := Request{Specialization: "plumbing", City: "Omsk", Date: time.Now()}

	for i := 0; i < 2; i++ {
		result, err := cached.Match(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, result)
	}
	assert.Equal(t, 2, inner.calls, "no-candidate outcomes are recomputed")
}

func TestCachedMatcherSurvivesRedisOutage(t *testing.T) {
	ctx := context.Background()
	inner := &countingMatcher{result: &Result{MasterID: 5, Score: 42}}
	cached, mr := newCacheFixture(t, inner)
	mr.Close()

	result, err := cached.Match(ctx, Request{Specialization: "plumbing", City: "Omsk", Date: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(5), result.MasterID)
}
