// Package app wires configuration, the API client and the application
// services together for the command line.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groupApp "github.com/felixgeelhaar/aira/internal/groups/application"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/felixgeelhaar/aira/internal/groups/infrastructure/cache"
	ruleApp "github.com/felixgeelhaar/aira/internal/rules/application"
	"github.com/felixgeelhaar/aira/internal/rules/application/commands"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/felixgeelhaar/aira/internal/shared/infrastructure/apiclient"
	"github.com/felixgeelhaar/aira/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location

	// API
	API *apiclient.Client

	// Redis group cache (nil when not configured or unreachable)
	RedisClient *redis.Client
	GroupCache  *cache.Gateway

	Catalog *connectors.Catalog

	// Services
	RuleService      *ruleApp.Service
	GroupService     *groupApp.Service
	ConnectorService *connectorApp.Service
}

// NewContainer creates a new dependency container. Redis is optional: in
// development an unreachable Redis only disables the group cache.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Location: cfg.Location(),
		Catalog:  connectors.DefaultCatalog(),
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:         cfg.APIURL,
		Token:           cfg.APIToken,
		Timeout:         cfg.APITimeout,
		BreakerFailures: uint32(cfg.BreakerFailures),
		BreakerTimeout:  cfg.BreakerTimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	c.API = client

	var groupGateway groups.Gateway = client
	var invalidator commands.Invalidator

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, group cache disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				_ = redisClient.Close()
				if !cfg.IsDevelopment() {
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, group cache disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				c.GroupCache = cache.NewGateway(client, redisClient, cacheNamespace(cfg.APIURL), cfg.GroupCacheTTL, logger)
				groupGateway = c.GroupCache
				invalidator = c.GroupCache
				logger.Info("connected to Redis")
			}
		}
	}

	c.RuleService = ruleApp.NewService(c.Catalog, client, groupGateway, invalidator)
	c.GroupService = groupApp.NewService(groupGateway)
	c.ConnectorService = connectorApp.NewService(c.Catalog, client, cfg.Platform)

	return c, nil
}

// FormDeps loads what the rule form needs to render: connector statuses and
// the group picker. A failed connector lookup leaves every connector
// unconnected rather than failing the form.
func (c *Container) FormDeps(ctx context.Context) (form.Deps, error) {
	conns, err := c.ConnectorService.ListConnectors(ctx)
	if err != nil {
		c.Logger.WarnContext(ctx, "connector statuses unavailable", "error", err)
		conns = c.Catalog.Join(nil)
	}
	all, err := c.GroupService.AllGroups(ctx)
	if err != nil {
		return form.Deps{}, fmt.Errorf("load groups: %w", err)
	}
	return form.Deps{
		Catalog:    c.Catalog,
		Connectors: conns,
		Groups:     all,
		Location:   c.Location,
		Now:        time.Now,
	}, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Debug("Redis connection closed")
		}
	}
}

// cacheNamespace keys the group cache by API host so two backends never
// share entries.
func cacheNamespace(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "default"
	}
	return u.Host
}
