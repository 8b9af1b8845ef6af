package pkgcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = Key{Source: "../shared_utils", Revision: "1.2.0"}

func TestGetOrFetch_HitDoesNotFetch(t *testing.T) {
	c := New()
	var calls atomic.Int32
	fetch := func(_ context.Context, k Key) (Package, error) {
		calls.Add(1)
		return Package{Location: "/pkgs/" + k.Revision, Fingerprint: "abc"}, nil
	}

	first, err := c.GetOrFetch(context.Background(), testKey, fetch)
	require.NoError(t, err)
	second, err := c.GetOrFetch(context.Background(), testKey, fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, testKey, first.Key)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Fetches: 1}, c.Stats())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "/pkgs/1.2.0", first.Location)
}

func TestGetOrFetch_ConcurrentCallersShareOneFetch(t *testing.T) {
	const callers = 32
	c := New()
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context, Key) (Package, error) {
		calls.Add(1)
		<-release
		return Package{Location: "/pkgs/shared"}, nil
	}

	var wg sync.WaitGroup
	locations := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.GetOrFetch(context.Background(), testKey, fetch)
			locations[i], errs[i] = p.Location, err
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "/pkgs/shared", locations[i])
	}
	assert.Equal(t, int64(callers), c.Stats().Hits+c.Stats().Misses)
}

func TestGetOrFetch_ConcurrentWaitersShareFailure(t *testing.T) {
	const callers = 8
	c := New()
	boom := errors.New("clone failed")
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context, Key) (Package, error) {
		calls.Add(1)
		<-release
		return Package{}, boom
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetOrFetch(context.Background(), testKey, fetch)
		}(i)
	}

	// Every caller has missed; give the stragglers time to join the flight.
	require.Eventually(t, func() bool { return c.Stats().Misses == callers }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
		var ferr *FetchError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, testKey, ferr.Key)
	}
	assert.Zero(t, c.Len())
}

func TestGetOrFetch_FailureIsNotCached(t *testing.T) {
	c := New()
	attempts := 0
	fetch := func(context.Context, Key) (Package, error) {
		attempts++
		if attempts == 1 {
			return Package{}, errors.New("network unreachable")
		}
		return Package{Location: "/pkgs/ok"}, nil
	}

	_, err := c.GetOrFetch(context.Background(), testKey, fetch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching package ../shared_utils@1.2.0: network unreachable")

	p, err := c.GetOrFetch(context.Background(), testKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "/pkgs/ok", p.Location)
	assert.Equal(t, 2, attempts)
}

func TestGetOrFetch_DistinctKeysFetchInParallel(t *testing.T) {
	c := New()
	var started sync.WaitGroup
	started.Add(2)
	fetch := func(_ context.Context, k Key) (Package, error) {
		started.Done()
		// Blocks forever if the two fetches were serialized.
		started.Wait()
		return Package{Location: "/pkgs/" + k.Source}, nil
	}

	var wg sync.WaitGroup
	for _, src := range []string{"a", "b"} {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			p, err := c.GetOrFetch(context.Background(), Key{Source: src}, fetch)
			assert.NoError(t, err)
			assert.Equal(t, "/pkgs/"+src, p.Location)
		}(src)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetches for different keys did not run concurrently")
	}
	assert.Equal(t, int64(2), c.Stats().Fetches)
}

func TestGetOrFetch_WaiterContextCancelled(t *testing.T) {
	c := New()
	release := make(chan struct{})
	fetch := func(context.Context, Key) (Package, error) {
		<-release
		return Package{Location: "/pkgs/slow"}, nil
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(context.Background(), testKey, fetch)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return c.Stats().Fetches == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetOrFetch(ctx, testKey, fetch)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, int64(1), c.Stats().Fetches)
}

func TestGetOrFetch_InvalidKey(t *testing.T) {
	c := New()
	_, err := c.GetOrFetch(context.Background(), Key{Revision: "1"}, func(context.Context, Key) (Package, error) {
		t.Fatal("fetch must not be called")
		return Package{}, nil
	})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "git@host:repo@v1", Key{Source: "git@host:repo", Revision: "v1"}.String())
	assert.Equal(t, "local/pkg", Key{Source: "local/pkg"}.String())
}
