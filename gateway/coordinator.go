package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

// flight is the shared outcome of one renewal exchange. credential and err
// are written once, before done is closed.
type flight struct {
	done       chan struct{}
	credential string
	err        error
}

// coordinator lets at most one renewal exchange run at a time. Requests that
// need a renewal while one is running attach to its flight.
type coordinator struct {
	lock    sync.Mutex
	current *flight
	waiters int

	// invalidate is told about a renewal that panicked, so the session is
	// cleared the same as for a renewal that failed normally
	invalidate func(err error)
}

type refreshFunc func(ctx context.Context, stale string) (string, error)

// renew returns a credential newer than stale. current reads the credential
// the session holds right now: if it already differs from stale, a renewal
// finished after the caller's request was sent and no new exchange is needed.
func (co *coordinator) renew(ctx context.Context, stale string, current func() string, refresh refreshFunc) (string, error) {
	co.lock.Lock()
	if f := co.current; f != nil {
		co.waiters++
		co.lock.Unlock()
		return co.wait(ctx, f)
	}
	if credential := current(); credential != "" && credential != stale {
		co.lock.Unlock()
		return credential, nil
	}
	f := &flight{done: make(chan struct{})}
	co.current = f
	co.lock.Unlock()

	return co.lead(ctx, f, stale, refresh)
}

// lead runs the exchange. The flight is settled on every exit path, panics
// included, so a crashed refresh never leaves the coordinator wedged.
func (co *coordinator) lead(ctx context.Context, f *flight, stale string, refresh refreshFunc) (credential string, err error) {
	defer func() {
		if r := recover(); r != nil {
			credential, err = "", fmt.Errorf("%w: panic: %v", errors.ErrRefreshFailed, r)
			if co.invalidate != nil {
				co.invalidate(err)
			}
		}
		co.settle(f, credential, err)
	}()
	return refresh(ctx, stale)
}

func (co *coordinator) settle(f *flight, credential string, err error) {
	co.lock.Lock()
	defer co.lock.Unlock()

	f.credential, f.err = credential, err
	if co.current == f {
		co.current = nil
	}
	co.waiters = 0
	close(f.done)
}

func (co *coordinator) wait(ctx context.Context, f *flight) (string, error) {
	select {
	case <-f.done:
		return f.credential, f.err
	case <-ctx.Done():
		co.lock.Lock()
		if co.current == f && co.waiters > 0 {
			co.waiters--
		}
		co.lock.Unlock()
		return "", ctx.Err()
	}
}

func (co *coordinator) inFlight() bool {
	co.lock.Lock()
	defer co.lock.Unlock()
	return co.current != nil
}

func (co *coordinator) pending() int {
	co.lock.Lock()
	defer co.lock.Unlock()
	return co.waiters
}
