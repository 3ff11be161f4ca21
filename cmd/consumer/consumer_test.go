package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-marketplace/internal/models"
)

// fakeUpdater implements RedisUpdater for tests
type fakeUpdater struct {
	failSet  int // number of times to fail Set before succeeding
	failH    int // number of times to fail HSet before succeeding
	setCalls int
	hCalls   int
}

func (f *fakeUpdater) Set(ctx context.Context, key string, value []byte) error {
	f.setCalls++
	if f.setCalls <= f.failSet {
		return errors.New("set fail")
	}
	return nil
}

func (f *fakeUpdater) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hCalls++
	if f.hCalls <= f.failH {
		return errors.New("hset fail")
	}
	return nil
}

func testEvent() *models.RideEvent {
	return &models.RideEvent{
		Type:    "rider_joined",
		RideID:  "ride-000001",
		ActorID: "alice",
		Ride:    &models.Ride{ID: "ride-000001", OwnerID: "bob", Status: models.StatusOpen, MaxRiders: 3},
	}
}

func TestMirrorWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failSet: 1, failH: 1}
	ctx := context.Background()
	start := time.Now()
	if err := mirrorWithRetry(ctx, f, testEvent(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.setCalls < 2 || f.hCalls < 2 {
		t.Fatalf("expected retries, got set=%d h=%d", f.setCalls, f.hCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestMirrorWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failSet: 5}
	if err := mirrorWithRetry(context.Background(), f, testEvent(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestMirrorWithRetry_EventWithoutRideBody(t *testing.T) {
	f := &fakeUpdater{}
	ev := testEvent()
	ev.Ride = nil
	if err := mirrorWithRetry(context.Background(), f, ev, 3, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.setCalls != 0 {
		t.Fatalf("expected no Set calls without a ride body, got %d", f.setCalls)
	}
	if f.hCalls != 1 {
		t.Fatalf("expected one HSet call, got %d", f.hCalls)
	}
}
