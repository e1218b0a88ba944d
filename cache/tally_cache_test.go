package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/faculty-games/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, TallyCache) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return srv, NewRedisTallyCache(client, time.Minute)
}

func TestRedisTallyCache_MissSetHit(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v, want miss", ok, err)
	}

	want := []models.MedalTally{
		{FacultyID: "f-1", FacultyShortName: "ENG", TotalGold: 1, TotalPoints: 3, Rank: 1},
		{FacultyID: "f-2", FacultyShortName: "BUS", Rank: 2},
	}
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRedisTallyCache_InvalidateAndTTL(t *testing.T) {
	srv, c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, []models.MedalTally{{FacultyID: "f-1"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := srv.TTL(TallyKey); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if srv.Exists(TallyKey) {
		t.Error("key still present after Invalidate")
	}

	if err := c.Set(ctx, []models.MedalTally{{FacultyID: "f-1"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	srv.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx); ok {
		t.Error("entry survived its ttl")
	}
}

func TestRedisTallyCache_CorruptEntry(t *testing.T) {
	srv, c := newTestCache(t)
	if err := srv.Set(TallyKey, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, err := c.Get(context.Background()); err == nil || ok {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}
