package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/digest/internal/core/domain"
)

func TestKeys(t *testing.T) {
	c := newClient(nil, "")
	if got := c.checkpointKey(); got != "digest:checkpoint" {
		t.Errorf("checkpointKey = %q", got)
	}
	if got := c.stagingKey(7); got != "digest:checkpoint:staging:7" {
		t.Errorf("stagingKey = %q", got)
	}

	c = newClient(nil, "team-a")
	if got := c.leaseKey(); got != "team-a:lease" {
		t.Errorf("leaseKey = %q", got)
	}
}

func TestKeepLease_RejectsNonPositiveTTL(t *testing.T) {
	c := newClient(nil, "")
	for _, ttl := range []time.Duration{0, -time.Second} {
		if err := c.KeepLease(context.Background(), "owner", ttl); !errors.Is(err, ErrInvalidLeaseTTL) {
			t.Errorf("KeepLease(%s) = %v, want ErrInvalidLeaseTTL", ttl, err)
		}
	}
}

// Set DIGEST_TEST_REDIS_URL to run against a real Redis instance.
func setupClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("DIGEST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DIGEST_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	c := newClient(rdb, "digest-test-"+time.Now().Format("150405.000000"))
	t.Cleanup(func() {
		rdb.Del(context.Background(), c.checkpointKey(), c.leaseKey())
	})
	return c
}

func TestCheckpointStore_SaveLoad(t *testing.T) {
	c := setupClient(t)
	s := NewCheckpointStore(c)
	ctx := context.Background()

	cp, err := s.Load(ctx)
	if err != nil || cp != nil {
		t.Fatalf("empty store: %+v, %v", cp, err)
	}

	for seq := uint64(1); seq <= 3; seq++ {
		if err := s.Save(ctx, &domain.Checkpoint{Version: 1, Sequence: seq}); err != nil {
			t.Fatalf("Save %d: %v", seq, err)
		}
	}

	cp, err = s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cp.Sequence != 3 {
		t.Errorf("sequence = %d, want 3", cp.Sequence)
	}
	if n, _ := c.rdb.Exists(ctx, c.stagingKey(3)).Result(); n != 0 {
		t.Error("staging key should be renamed away")
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if cp, _ := s.Load(ctx); cp != nil {
		t.Error("expected nil after reset")
	}
}

func TestLease(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	if err := c.AcquireLease(ctx, "run-a", time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := c.AcquireLease(ctx, "run-b", time.Minute); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("second acquire should fail, got %v", err)
	}
	if err := c.RefreshLease(ctx, "run-b", time.Minute); !errors.Is(err, ErrLeaseHeld) {
		t.Errorf("refresh by non-owner should fail, got %v", err)
	}
	if err := c.RefreshLease(ctx, "run-a", time.Minute); err != nil {
		t.Errorf("refresh by owner: %v", err)
	}

	_ = c.ReleaseLease(ctx, "run-b")
	if err := c.AcquireLease(ctx, "run-b", time.Minute); !errors.Is(err, ErrLeaseHeld) {
		t.Error("release by non-owner must not drop the lease")
	}

	if err := c.ReleaseLease(ctx, "run-a"); err != nil {
		t.Fatal(err)
	}
	if err := c.AcquireLease(ctx, "run-b", time.Minute); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}
