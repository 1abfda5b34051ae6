package serverapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"blogql/internal/auth"
	"blogql/internal/dbexec"
	"blogql/internal/resolver"
	"blogql/internal/store"
)

// Init acquires all runtime resources in dependency order: observability
// providers, the database, migrations, the store, auth, the resolver and
// schema, and finally the HTTP server. Each acquired resource pushes a
// cleanup so a failed Init rolls back everything obtained so far.
func (a *App) Init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if a.initialized {
		return nil
	}

	success := false
	defer func() {
		if !success {
			a.cleanup.run(context.Background(), a.logger)
			a.cleanup = cleanupStack{}
		}
	}()

	if a.loggerProvider != nil {
		provider := a.loggerProvider
		a.cleanup.push("logger provider", func(ctx context.Context) error {
			return provider.Shutdown(ctx, a.logger.Logger)
		})
	}

	meterProvider, graphqlMetrics, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.meterProvider = meterProvider
	a.graphqlMetrics = graphqlMetrics
	if meterProvider != nil {
		a.cleanup.push("meter provider", func(ctx context.Context) error {
			return meterProvider.Shutdown(ctx, a.logger.Logger)
		})
	}

	tracerProvider, err := initTracing(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tracerProvider
	if tracerProvider != nil {
		a.cleanup.push("tracer provider", func(ctx context.Context) error {
			return tracerProvider.Shutdown(ctx, a.logger.Logger)
		})
	}

	db, dbStatsReg, err := connectDB(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.dbStatsReg = dbStatsReg
	a.cleanup.push("database connection", func(context.Context) error {
		return db.Close()
	})
	if dbStatsReg != nil {
		a.cleanup.push("database stats metrics", func(context.Context) error {
			return dbStatsReg.Unregister()
		})
	}

	if err := configureDatabase(ctx, a.cfg, a.logger, db, a.effectiveDatabase); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if a.cfg.Database.MigrateOnStart {
		if err := store.Migrate(db, a.effectiveDatabase); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		a.logger.Info("database migrations applied", slog.String("database", a.effectiveDatabase))
	}

	a.store = store.New(dbexec.NewStandardExecutor(db))

	issuer := auth.NewIssuer([]byte(a.cfg.Auth.JWTSecret), a.cfg.Auth.Issuer)

	oidcVerifier, err := initOIDCVerifier(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	a.resolver = resolver.New(resolver.Config{
		Store:  a.store,
		Issuer: issuer,
		OIDC:   oidcVerifier,
		Logger: a.logger,
	})

	schema, err := a.resolver.Schema()
	if err != nil {
		return fmt.Errorf("failed to build GraphQL schema: %w", err)
	}

	a.graphqlHandler = buildGraphQLHandler(a.cfg, a.logger, schema, issuer, a.graphqlMetrics)
	a.mux = buildRouter(a.cfg, a.logger, db, a.graphqlHandler, a.meterProvider)
	a.handler = wrapHTTPHandler(a.cfg, a.logger, a.mux)

	a.serverAddr = fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv, tlsManager, err := buildServer(a.cfg, a.logger, a.handler, a.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	a.srv = srv
	a.tlsManager = tlsManager
	if tlsManager != nil {
		a.cleanup.push("TLS certificate manager", func(context.Context) error {
			return tlsManager.Shutdown()
		})
	}
	a.cleanup.push("HTTP server", func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	a.initialized = true
	success = true
	return nil
}
