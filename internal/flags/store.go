package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const routesKey = "gateway:routes"

// Store keeps one toggle per route in a redis hash. Routes without an
// entry are enabled.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func (s *Store) Set(ctx context.Context, route Route, enabled bool) (*Toggle, error) {
	if _, err := ParseRoute(string(route)); err != nil {
		return nil, err
	}

	t := &Toggle{Route: route, Enabled: enabled, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal toggle: %w", err)
	}
	if err := s.client.HSet(ctx, routesKey, string(route), b).Err(); err != nil {
		return nil, fmt.Errorf("set route toggle: %w", err)
	}
	return t, nil
}

func (s *Store) Enabled(ctx context.Context, route Route) (bool, error) {
	if _, err := ParseRoute(string(route)); err != nil {
		return false, err
	}

	val, err := s.client.HGet(ctx, routesKey, string(route)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get route toggle: %w", err)
	}

	var t Toggle
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return false, fmt.Errorf("unmarshal toggle: %w", err)
	}
	return t.Enabled, nil
}

// List returns a toggle for every known route. Unset routes come back
// enabled with a zero UpdatedAt.
func (s *Store) List(ctx context.Context) ([]*Toggle, error) {
	vals, err := s.client.HGetAll(ctx, routesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list route toggles: %w", err)
	}

	out := make([]*Toggle, 0, len(Routes))
	for _, r := range Routes {
		t := &Toggle{Route: r, Enabled: true}
		if raw, ok := vals[string(r)]; ok {
			var stored Toggle
			if err := json.Unmarshal([]byte(raw), &stored); err == nil {
				t.Enabled = stored.Enabled
				t.UpdatedAt = stored.UpdatedAt
			}
		}
		out = append(out, t)
	}
	return out, nil
}
