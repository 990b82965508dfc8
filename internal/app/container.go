// Package app assembles the bot: config, transport, adapter, router and the
// optional redis-backed cooldown.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/adapter"
	"github.com/usherbot/usher/internal/config"
	"github.com/usherbot/usher/internal/domain"
	"github.com/usherbot/usher/internal/middleware"
	"github.com/usherbot/usher/internal/router"
	"github.com/usherbot/usher/internal/transport"
)

type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Router  *router.Router
	Gateway *transport.Gateway
	Adapter *adapter.MessageAdapter
	Redis   *redis.Client
}

// Build wires the services. The router is returned unconnected so the caller
// can register commands before the first message arrives.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Gateway: transport.NewGateway(cfg.Transport.WSURL, cfg.Transport.MaxReconnectAttempts, cfg.Transport.ReconnectDelay, logger),
		Adapter: adapter.NewMessageAdapter(logger),
	}

	c.Router = router.New(router.Options{
		Scope:         router.Scope(cfg.Bot.Scope),
		Prefix:        cfg.Bot.Prefix,
		Help:          cfg.Bot.Help,
		PairingNumber: cfg.Bot.PairingNumber,
	}, logger)

	if cfg.Cooldown.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		logger.Info("Redis connected",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
			zap.Int("db", cfg.Redis.DB),
		)

		c.Redis = client
		c.Router.OnBeforeHandle(middleware.Cooldown(client, cfg.Cooldown.Window, logger))
	}

	return c, nil
}

// Start connects the gateway and begins routing inbound payloads.
func (c *Container) Start(ctx context.Context) error {
	c.Router.Connect(c.Gateway)

	c.Gateway.OnMessage(func(raw []byte) {
		if c.Adapter.Event(raw) == "pairing" {
			msg := &domain.Message{Raw: raw, Timestamp: time.Now()}
			c.Router.Fire(ctx, router.HookPairing, domain.NewContext(msg, c.Gateway.SendText))
			return
		}
		if msg := c.Adapter.Normalize(raw); msg != nil {
			c.Router.Handle(ctx, msg)
		}
	})

	return c.Gateway.Connect(ctx)
}

// Shutdown disconnects the gateway and closes redis.
func (c *Container) Shutdown(ctx context.Context) error {
	err := c.Gateway.Disconnect()
	if c.Redis != nil {
		if cerr := c.Redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
