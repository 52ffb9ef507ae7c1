// Package cache keeps the group listing in Redis between page loads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached listing is served.
const DefaultTTL = time.Minute

// Gateway is a read-through cache in front of another groups gateway.
// Keys are namespaced: aira:{namespace}:groups.
type Gateway struct {
	next      domain.Gateway
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewGateway wraps next. namespace separates users or API hosts sharing one
// Redis; it is usually derived from the API URL.
func NewGateway(next domain.Gateway, client redis.UniversalClient, namespace string, ttl time.Duration, logger *slog.Logger) *Gateway {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		next:      next,
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

func (g *Gateway) key() string {
	return fmt.Sprintf("aira:%s:groups", g.namespace)
}

// ListGroups serves the cached listing, falling back to the wrapped gateway
// on a miss. Redis failures are logged and bypassed.
func (g *Gateway) ListGroups(ctx context.Context) (domain.Listing, error) {
	data, err := g.client.Get(ctx, g.key()).Bytes()
	switch {
	case err == nil:
		var listing domain.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return listing, nil
		}
		g.logger.Warn("discarding unreadable group cache entry", "key", g.key())
	case errors.Is(err, redis.Nil):
	default:
		g.logger.Warn("group cache read failed", "error", err)
	}

	listing, err := g.next.ListGroups(ctx)
	if err != nil {
		return domain.Listing{}, err
	}

	if data, err := json.Marshal(listing); err == nil {
		if err := g.client.Set(ctx, g.key(), data, g.ttl).Err(); err != nil {
			g.logger.Warn("group cache write failed", "error", err)
		}
	}
	return listing, nil
}

// InvalidateGroups drops the cached listing. Rule writes call it so rule
// counts refresh.
func (g *Gateway) InvalidateGroups(ctx context.Context) error {
	return g.client.Del(ctx, g.key()).Err()
}
