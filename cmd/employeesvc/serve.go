package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/employeesvc/auth"
	"github.com/jonwraymond/employeesvc/config"
	"github.com/jonwraymond/employeesvc/database"
	"github.com/jonwraymond/employeesvc/employee"
	"github.com/jonwraymond/employeesvc/health"
	"github.com/jonwraymond/employeesvc/observe"
	"github.com/jonwraymond/employeesvc/secret"
	"github.com/jonwraymond/employeesvc/server"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Resolve secrets, connect to the database and serve HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// resolvers pairs the plain resolver with the getter handed to consumers,
// which caches when secrets.cache_ttl is set.
type resolvers struct {
	plain  *secret.Resolver
	lookup interface {
		secret.Getter
		secret.Lookuper
	}
}

func newResolvers(cfg *config.Config, logger observe.Logger) (*resolvers, error) {
	r, err := secret.NewResolver(cfg.SecretConfig(secret.OSEnv), secret.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	out := &resolvers{plain: r, lookup: r}
	if cfg.Secrets.CacheTTL > 0 {
		out.lookup = secret.NewCachingResolver(r, nil, cfg.Secrets.CacheTTL)
	}
	return out, nil
}

func serve(ctx context.Context, cfg *config.Config) (err error) {
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = errors.Join(err, obs.Shutdown(shutdownCtx))
	}()

	logger := obs.Logger()
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	secrets, err := newResolvers(cfg, logger)
	if err != nil {
		return err
	}

	var mandatory map[string]string
	err = mw.Run(ctx, observe.Operation{Component: "secret", Name: "resolve_mandatory"}, func(ctx context.Context) error {
		var rerr error
		mandatory, rerr = secrets.plain.ResolveAll(ctx, config.MandatorySecrets()...)
		return rerr
	})
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	dsURL, err := cfg.DatasourceURL(secret.OSEnv)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	db, err := database.Open(ctx, database.Config{
		URL:             dsURL,
		Username:        cfg.Datasource.Username,
		PasswordSecret:  config.SecretDatabasePassword,
		MaxOpenConns:    cfg.Datasource.MaxOpenConns,
		MaxIdleConns:    cfg.Datasource.MaxIdleConns,
		ConnMaxLifetime: cfg.Datasource.ConnMaxLifetime,
		ConnectAttempts: cfg.Datasource.ConnectAttempts,
	}, secrets.lookup, database.WithLogger(logger), database.WithMiddleware(mw))
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer db.Close()

	store := employee.NewGormStore(db.Gorm())
	if cfg.Datasource.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	}

	authenticator, err := buildAuthenticator(ctx, cfg.Auth, mandatory[config.SecretAPIKey], secrets.lookup, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	agg := health.NewAggregator(health.AggregatorConfig{Timeout: cfg.Health.Timeout})
	agg.Register(health.NewPingChecker("database", db.Ping))
	agg.Register(server.SecretsChecker(secrets.lookup, config.MandatorySecrets()...))
	if cfg.Health.HeapLimitMB > 0 {
		agg.Register(health.NewHeapChecker(cfg.Health.HeapLimitMB << 20))
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := server.NewRouter(server.Options{
		ServiceName:    cfg.Observe.ServiceName,
		Store:          store,
		Auth:           authenticator,
		Health:         agg,
		Logger:         logger,
		Metrics:        mw.Metrics(),
		TracerProvider: obs.TracerProvider(),
		MetricsHandler: obs.MetricsHandler(),
	})

	return server.New(cfg.Server, router, logger).Run(ctx)
}

// buildAuthenticator always accepts the API key and adds JWT when a signing
// key is configured.
func buildAuthenticator(ctx context.Context, cfg config.AuthConfig, apiKey string, secrets secret.Getter, logger observe.Logger) (auth.Authenticator, error) {
	keys, err := auth.NewStaticAPIKeyStore(apiKey, cfg.APIKeyPrincipal)
	if err != nil {
		return nil, err
	}
	methods := []auth.Authenticator{auth.NewAPIKeyAuthenticator(keys)}

	signingKey, err := secrets.Resolve(ctx, config.SecretJWTSigningKey)
	switch {
	case errors.Is(err, secret.ErrSecretNotConfigured):
		logger.Info(ctx, "jwt authentication disabled", observe.Field{Key: "reason", Value: err.Error()})
	case err != nil:
		return nil, err
	default:
		jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   cfg.JWTLeeway,
		}, signingKey)
		if err != nil {
			return nil, err
		}
		methods = append(methods, jwtAuth)
	}
	return auth.NewCompositeAuthenticator(methods...), nil
}
