// Package infrastructure wires the application dependencies together.
package infrastructure

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/rishabh1414/NinjaRmm-v1/config"
	infraredis "github.com/rishabh1414/NinjaRmm-v1/infrastructure/redis"
	"github.com/rishabh1414/NinjaRmm-v1/internal/auth"
	"github.com/rishabh1414/NinjaRmm-v1/internal/organization"
	"github.com/rishabh1414/NinjaRmm-v1/internal/ticket"
	"github.com/rishabh1414/NinjaRmm-v1/pkg/ninjaclient"
)

// Container provides application dependencies.
type Container struct {
	// Services
	AuthService         *auth.Service
	TicketService       *ticket.Service
	OrganizationService *organization.Service

	// Handlers
	AuthHandler         *auth.Handler
	TicketHandler       *ticket.Handler
	OrganizationHandler *organization.Handler

	// Infrastructure
	Logger      *zap.Logger
	RedisClient goredis.UniversalClient
	RedisHealth *infraredis.HealthChecker
	TokenStore  auth.TokenStore
	NinjaClient *ninjaclient.Client
}

// NewContainer creates and initializes the dependency container.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	container := &Container{Logger: logger}

	redisCfg := infraredis.DefaultConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	container.RedisClient = infraredis.NewClient(redisCfg)
	container.RedisHealth = infraredis.NewHealthChecker(ctx, container.RedisClient, 30*time.Second)

	container.TokenStore = auth.NewRedisTokenStore(container.RedisClient, cfg.Redis.KeyPrefix)

	container.AuthService = auth.NewService(auth.OAuthConfig{
		ClientID:     cfg.Ninja.ClientID,
		ClientSecret: cfg.Ninja.ClientSecret,
		RedirectURI:  cfg.Ninja.RedirectURI,
		Scopes:       cfg.Ninja.Scopes,
		AuthURL:      cfg.Ninja.AuthURL,
		TokenURL:     cfg.Ninja.TokenURL,
	}, container.TokenStore, logger)

	container.NinjaClient = ninjaclient.NewClient(
		cfg.Ninja.APIBaseURL,
		container.AuthService,
		cfg.Server.Timeout,
		logger,
	)

	container.TicketService = ticket.NewService(container.NinjaClient, logger)
	container.OrganizationService = organization.NewService(container.NinjaClient)

	container.AuthHandler = auth.NewHandler(container.AuthService)
	container.TicketHandler = ticket.NewHandler(container.TicketService)
	container.OrganizationHandler = organization.NewHandler(container.OrganizationService)

	auth.InitSessionStore([]byte(cfg.Session.Secret))

	return container, nil
}

// Shutdown gracefully closes connections.
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", zap.Error(err))
		}
	}
}
