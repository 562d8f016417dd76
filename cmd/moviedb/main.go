package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"moviedb/internal/app"
	"moviedb/internal/config"
	"moviedb/internal/nav"
	"moviedb/internal/ratelimit"
	"moviedb/internal/server"
	"moviedb/internal/util"
	"moviedb/internal/view"
	"moviedb/pkg/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open data store: %v", err)
	}
	defer dataStore.Close()

	appCore := app.New(dataStore)
	renderer, err := view.New(appCore)
	if err != nil {
		log.Fatalf("failed to init renderer: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
	}

	sessions, err := openSessions(cfg, redisClient, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}

	var limiter ratelimit.Limiter
	if cfg.SearchRateLimitPerMinute > 0 {
		if redisClient != nil {
			limiter, err = ratelimit.NewRedisFixedWindowLimiter(redisClient, "", cfg.SearchRateLimitPerMinute, time.Minute)
		} else {
			limiter, err = ratelimit.NewMemoryFixedWindowLimiter(cfg.SearchRateLimitPerMinute, time.Minute)
		}
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Renderer:       renderer,
		Sessions:       sessions,
		SearchLimiter:  limiter,
		TrustedProxies: trusted,
		CookieName:     cfg.SessionCookieName,
		CookieSecure:   cfg.SessionCookieSecure,
		SessionTTL:     sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr, "data_source", cfg.DataSource, "sessions", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func openStore(cfg config.FileConfig) (store.Store, error) {
	if cfg.DataSource == config.DataSourceMemory {
		catalog, err := store.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		return store.NewMemoryStore(catalog), nil
	}
	return store.NewGormStore(store.MySQLConfig{
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Database: cfg.MySQLDatabase,
		SSLCA:    cfg.MySQLSSLCA,
	})
}

func openSessions(cfg config.FileConfig, client *redis.Client, ttl time.Duration) (nav.SessionStore, error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		if client == nil {
			return nil, errors.New("redis session backend requires redisAddr")
		}
		return nav.NewRedisSessionStoreWithClient(client, ttl), nil
	case config.SessionCookie:
		return nav.NewCookieSessionStore(cfg.SessionSecret, ttl)
	default:
		return nav.NewMemorySessionStore(ttl), nil
	}
}
