package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"regis_chat_backend/platform/redis"
)

type payload struct {
	Reply string   `json:"reply"`
	URLs  []string `json:"urls"`
}

func TestL1OnlyKeepsFullTTL(t *testing.T) {
	l1 := InitL1Cache()
	cs := NewCacheService(l1, nil)
	ctx := context.Background()

	if err := cs.SetCache(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("SetCache: %v", err)
	}
	if v, ok := cs.GetCache(ctx, "k"); !ok || v != "v" {
		t.Fatalf("GetCache = %v, %v", v, ok)
	}
	if err := cs.DelCache(ctx, "k"); err != nil {
		t.Fatalf("DelCache: %v", err)
	}
	if l1.Len() != 0 {
		t.Fatal("expected empty l1 after delete")
	}
}

func TestTypedCacheDecodesFromL2(t *testing.T) {
	mr := miniredis.RunT(t)
	l2 := redis.NewService(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	l1 := InitL1Cache()
	tc := NewTypedCache[payload](NewCacheService(l1, l2))
	ctx := context.Background()

	want := payload{Reply: "ok", URLs: []string{"https://x/a.pdf"}}
	if err := tc.Set(ctx, "q", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// drop the in-memory copy so the value comes back as JSON from redis
	l1.Del("q")
	got, ok, err := tc.Get(ctx, "q")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.Reply != "ok" || len(got.URLs) != 1 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestGetOrLoadCollapsesConcurrentCalls(t *testing.T) {
	tc := NewTypedCache[*payload](NewCacheService(InitL1Cache(), nil))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (*payload, error) {
		calls.Add(1)
		<-release
		return &payload{Reply: "loaded"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*payload, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := tc.GetOrLoad(ctx, "same", time.Minute, load)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one load, got %d", n)
	}
	for _, r := range results {
		if r == nil || r.Reply != "loaded" {
			t.Fatalf("unexpected result %+v", r)
		}
	}
	v, err := tc.GetOrLoad(ctx, "same", time.Minute, func(context.Context) (*payload, error) {
		t.Fatal("should be served from cache")
		return nil, nil
	})
	if err != nil || v.Reply != "loaded" {
		t.Fatalf("cached GetOrLoad = %+v, %v", v, err)
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	tc := NewTypedCache[string](NewCacheService(InitL1Cache(), nil))
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := tc.GetOrLoad(ctx, "k", time.Minute, func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := tc.GetOrLoad(ctx, "k", time.Minute, func(context.Context) (string, error) { return "fine", nil })
	if err != nil || v != "fine" {
		t.Fatalf("expected reload after error, got %q, %v", v, err)
	}
}

func TestGetOrLoadSurvivesFirstCallerCancel(t *testing.T) {
	tc := NewTypedCache[*payload](NewCacheService(InitL1Cache(), nil))

	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (*payload, error) {
		close(started)
		select {
		case <-release:
			return &payload{Reply: "loaded"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := tc.GetOrLoad(firstCtx, "q", time.Minute, load)
		firstErr <- err
	}()
	<-started

	secondDone := make(chan *payload, 1)
	go func() {
		v, err := tc.GetOrLoad(context.Background(), "q", time.Minute, load)
		if err != nil {
			t.Errorf("second caller: %v", err)
		}
		secondDone <- v
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller should see its own cancel, got %v", err)
	}
	// give the second caller time to join the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case v := <-secondDone:
		if v == nil || v.Reply != "loaded" {
			t.Fatalf("unexpected result %+v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
}

func TestGetOrLoadBoundsSharedLoad(t *testing.T) {
	tc := NewTypedCache[string](NewCacheService(InitL1Cache(), nil))
	tc.loadTimeout = 20 * time.Millisecond

	_, err := tc.GetOrLoad(context.Background(), "slow", time.Minute, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}
