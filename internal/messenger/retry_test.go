package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

type flakyMessenger struct {
	failures int
	calls    int
}

func (f *flakyMessenger) Name() string { return "flaky" }

func (f *flakyMessenger) Push(context.Context, []core.Record) error {
	f.calls++
	if f.calls <= f.failures {
		return core.ErrNetwork(core.CodeSinkUnreachable, "temporary failure")
	}
	return nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{Retries: 5, InitialDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(10))
}

func TestWithRetry_NoRetriesReturnsMessenger(t *testing.T) {
	f := &flakyMessenger{}
	assert.Same(t, f, WithRetry(f, RetryPolicy{}, nil))
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	f := &flakyMessenger{failures: 2}
	m := WithRetry(f, RetryPolicy{Retries: 3, InitialDelay: time.Millisecond}, nil)
	m.(*retrying).sleep = noSleep

	require.NoError(t, m.Push(context.Background(), testRecords()))
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, "flaky", m.Name())
}

func TestWithRetry_GivesUp(t *testing.T) {
	f := &flakyMessenger{failures: 10}
	m := WithRetry(f, RetryPolicy{Retries: 2, InitialDelay: time.Millisecond}, nil)
	m.(*retrying).sleep = noSleep

	err := m.Push(context.Background(), testRecords())
	require.Error(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	f := &flakyMessenger{failures: 10}
	m := WithRetry(f, RetryPolicy{Retries: 5, InitialDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Push(ctx, testRecords())
	require.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

type rejectingMessenger struct{ calls int }

func (r *rejectingMessenger) Name() string { return "rejecting" }

func (r *rejectingMessenger) Push(context.Context, []core.Record) error {
	r.calls++
	return core.ErrValidation(core.CodePushRejected, "collector answered 400 Bad Request")
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	r := &rejectingMessenger{}
	m := WithRetry(r, RetryPolicy{Retries: 5, InitialDelay: time.Millisecond}, nil)
	m.(*retrying).sleep = noSleep

	err := m.Push(context.Background(), testRecords())
	require.Error(t, err)
	assert.True(t, core.HasCode(err, core.CodePushRejected))
	assert.Equal(t, 1, r.calls)
}
