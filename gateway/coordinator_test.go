package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorSingleFlight(t *testing.T) {
	co := &coordinator{}
	gate := make(chan struct{})
	var calls atomic.Int32

	refresh := func(context.Context, string) (string, error) {
		calls.Add(1)
		<-gate
		return "new", nil
	}
	current := func() string { return "old" }

	const n = 8
	results := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = co.renew(context.Background(), "old", current, refresh)
		}(i)
	}

	require.Eventually(t, func() bool { return co.pending() == n-1 }, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for i, credential := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "new", credential)
	}
	require.False(t, co.inFlight())
	require.Zero(t, co.pending())
}

func TestCoordinatorReleasesAfterPanic(t *testing.T) {
	var invalidated []error
	co := &coordinator{invalidate: func(err error) { invalidated = append(invalidated, err) }}
	current := func() string { return "" }

	_, err := co.renew(context.Background(), "old", current, func(context.Context, string) (string, error) {
		panic("boom")
	})
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	require.Contains(t, err.Error(), "boom")
	require.False(t, co.inFlight())
	require.Len(t, invalidated, 1)
	require.ErrorIs(t, invalidated[0], errors.ErrRefreshFailed)

	credential, err := co.renew(context.Background(), "old", current, func(context.Context, string) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	require.Equal(t, "new", credential)
}

func TestCoordinatorWaitersReceiveLeaderError(t *testing.T) {
	co := &coordinator{}
	gate := make(chan struct{})
	current := func() string { return "old" }

	leaderErr := make(chan error, 1)
	go func() {
		_, err := co.renew(context.Background(), "old", current, func(context.Context, string) (string, error) {
			<-gate
			return "", errors.ErrRefreshFailed
		})
		leaderErr <- err
	}()
	require.Eventually(t, co.inFlight, time.Second, time.Millisecond)

	waiterErr := make(chan error, 1)
	go func() {
		_, err := co.renew(context.Background(), "old", current, func(context.Context, string) (string, error) {
			t.Error("waiter must not refresh")
			return "", nil
		})
		waiterErr <- err
	}()
	require.Eventually(t, func() bool { return co.pending() == 1 }, time.Second, time.Millisecond)

	close(gate)
	require.ErrorIs(t, <-leaderErr, errors.ErrRefreshFailed)
	require.ErrorIs(t, <-waiterErr, errors.ErrRefreshFailed)
}

func TestCoordinatorSkipsRefreshWhenAlreadyRenewed(t *testing.T) {
	co := &coordinator{}
	credential, err := co.renew(context.Background(), "old", func() string { return "newer" }, func(context.Context, string) (string, error) {
		t.Error("refresh must not run")
		return "", nil
	})
	require.NoError(t, err)
	require.Equal(t, "newer", credential)
}

func TestAttemptRetryDoesNotMutateOriginal(t *testing.T) {
	original := attempt{request: &Request{Method: "GET", Path: "/lots"}, credential: "old"}
	replay := original.retry("new")

	require.False(t, original.retried)
	require.Equal(t, "old", original.credential)
	require.True(t, replay.retried)
	require.Equal(t, "new", replay.credential)
	require.Same(t, original.request, replay.request)
}
