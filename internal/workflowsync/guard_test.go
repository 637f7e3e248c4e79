package workflowsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentwatch/internal/testutil"
)

func TestTimeoutGuardFiresOncePerEpisode(t *testing.T) {
	clock := testutil.NewFakeClock(harnessStart)
	guard := NewTimeoutGuard(clock, 5*time.Second)

	guard.Arm(context.Background(), 1)
	require.True(t, guard.Armed())

	_, ok := clock.Next(harnessStart.Add(4 * time.Second))
	assert.False(t, ok)
	msg, ok := clock.Next(harnessStart.Add(5 * time.Second))
	require.True(t, ok)

	timeout, isTimeout := msg.(timeoutMsg)
	require.True(t, isTimeout)
	assert.True(t, guard.Fire(timeout))
	assert.False(t, guard.Fire(timeout))
	assert.False(t, guard.Armed())
}

func TestTimeoutGuardIgnoresPreviousEpisode(t *testing.T) {
	clock := testutil.NewFakeClock(harnessStart)
	guard := NewTimeoutGuard(clock, time.Second)

	guard.Arm(context.Background(), 1)
	guard.Arm(context.Background(), 2)

	assert.Equal(t, 1, clock.Pending())
	assert.False(t, guard.Fire(timeoutMsg{episode: 1}))
	assert.True(t, guard.Fire(timeoutMsg{episode: 2}))
}

func TestTimeoutGuardDisarmCancelsTimer(t *testing.T) {
	clock := testutil.NewFakeClock(harnessStart)
	guard := NewTimeoutGuard(clock, time.Second)

	assert.False(t, guard.Disarm())
	guard.Arm(context.Background(), 1)
	assert.True(t, guard.Disarm())
	assert.Zero(t, clock.Pending())
	assert.False(t, guard.Fire(timeoutMsg{episode: 1}))
}

func TestRequestScopesReplaceCancelsPrevious(t *testing.T) {
	scopes := newRequestScopes(context.Background())

	first := scopes.replace(scopeEpisode)
	second := scopes.replace(scopeEpisode)
	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.Same(t, second, scopes.contextFor(scopeEpisode))

	scopes.cancel(scopeEpisode)
	assert.False(t, scopes.has(scopeEpisode))
	assert.ErrorIs(t, second.Err(), context.Canceled)

	revived := scopes.contextFor(scopeEpisode)
	assert.NoError(t, revived.Err())
	scopes.cancelAll()
	assert.ErrorIs(t, revived.Err(), context.Canceled)
}

func TestSystemClockAfterRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := SystemClock().After(ctx, time.Hour, timeoutMsg{episode: 1})
	cancel()
	assert.Nil(t, cmd())

	msg := SystemClock().After(context.Background(), time.Millisecond, timeoutMsg{episode: 2})()
	assert.Equal(t, timeoutMsg{episode: 2}, msg)
}
