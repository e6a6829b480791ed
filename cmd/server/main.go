// Command server runs the WORTH collaborative board: the TCP request
// channel, the HTTP registration/callback channel and the UDP chat
// announcer, all backed by one recoverable state snapshot.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/api"
	"github.com/worth-collab/worth-server/internal/api/handler"
	"github.com/worth-collab/worth-server/internal/chat"
	"github.com/worth-collab/worth-server/internal/core/ports"
	"github.com/worth-collab/worth-server/internal/core/service"
	"github.com/worth-collab/worth-server/internal/infrastructure/store/jsonfile"
	mongostore "github.com/worth-collab/worth-server/internal/infrastructure/store/mongo"
	redisstore "github.com/worth-collab/worth-server/internal/infrastructure/store/redis"
	"github.com/worth-collab/worth-server/internal/multicast"
	"github.com/worth-collab/worth-server/internal/notify"
	"github.com/worth-collab/worth-server/internal/pkg/config"
	"github.com/worth-collab/worth-server/internal/server"
	"github.com/worth-collab/worth-server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Persistence ---
	store, readiness, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer cleanup()

	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("snapshot load failed")
	}

	// --- Chat plumbing ---
	alloc, err := multicast.NewAllocator(cfg.MulticastSeed, cfg.ChatPort)
	if err != nil {
		log.Fatal().Err(err).Msg("allocator init failed")
	}
	announcer, err := chat.NewAnnouncer(log)
	if err != nil {
		log.Fatal().Err(err).Msg("chat announcer init failed")
	}
	defer announcer.Close()

	// --- Optional presence mirror ---
	var mirror ports.PresenceMirror
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rdb.Close()
		mirror = redisstore.NewPresenceMirror(rdb)
		readiness = append(readiness, handler.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// --- Core services, seeded from the snapshot ---
	hub := notify.NewHub(log)
	presence := service.NewPresenceService(store, hub, mirror, log)
	presence.Seed(snap.Users)

	board := service.NewBoardService(store, alloc, announcer, presence, log)
	board.Seed(snap.Projects)

	// --- HTTP channel: registration, callbacks, probes, metrics ---
	router := api.NewRouter(presence, hub, readiness, log)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		log.Info().Str("addr", addr).Msg("http channel listening")
		if err := router.Start(addr); err != nil {
			log.Error().Err(err).Msg("http channel stopped")
			stop()
		}
	}()

	// --- TCP request channel ---
	tcp := server.New(fmt.Sprintf(":%d", cfg.TCPPort), presence, board, log)
	go func() {
		if err := tcp.ListenAndServe(ctx); err != nil {
			log.Error().Err(err).Msg("tcp channel stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}

// buildStore selects the persistence gateway from configuration and returns
// it along with its readiness dependencies and a cleanup hook.
func buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Store, []handler.Dependency, func(), error) {
	switch cfg.StoreBackend {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		st := mongostore.NewStore(db)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, nil, err
		}
		deps := []handler.Dependency{{
			Name: "mongodb",
			Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		}}
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		return st, deps, cleanup, nil

	case "jsonfile":
		st, err := jsonfile.New(cfg.RecoveryDir, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return st, nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
