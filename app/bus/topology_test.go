package bus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTopologyDeclarationsAreIdempotent(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	topology := NewTopology(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := topology.DeclareExchange(ctx, "order_events", true); err != nil {
			t.Fatalf("DeclareExchange (round %d): %v", i+1, err)
		}
		if err := topology.DeclareQueue(ctx, "notifications.order", true); err != nil {
			if strings.Contains(err.Error(), "unknown command") {
				t.Skipf("streams not supported by miniredis: %v", err)
			}
			t.Fatalf("DeclareQueue (round %d): %v", i+1, err)
		}
		if err := topology.Bind(ctx, "notifications.order", "order_events", "order.*"); err != nil {
			t.Fatalf("Bind (round %d): %v", i+1, err)
		}
	}

	bindings, err := topology.Bindings(ctx, "order_events")
	if err != nil {
		t.Fatalf("Bindings: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected 1 binding after duplicate declarations, got %d", len(bindings))
	}
	if bindings[0].Queue != "notifications.order" || bindings[0].Pattern != "order.*" {
		t.Fatalf("unexpected binding %+v", bindings[0])
	}
}

func TestTopologyConflictingRedeclarationFails(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	topology := NewTopology(client)
	ctx := context.Background()

	if err := topology.DeclareExchange(ctx, "user_events", true); err != nil {
		t.Fatalf("DeclareExchange: %v", err)
	}

	err := topology.DeclareExchange(ctx, "user_events", false)
	if !errors.Is(err, ErrTopologyConflict) {
		t.Fatalf("expected ErrTopologyConflict, got %v", err)
	}
}
