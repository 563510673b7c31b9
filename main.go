package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	caches "huddle.com/server/caching"
	"huddle.com/server/game"
	"huddle.com/server/logging"
	"huddle.com/server/nats"
	"huddle.com/server/rest"
	"huddle.com/server/room"
	"huddle.com/server/util"
)

var configFile *string
var mainLogger = logging.GetZeroLogger("main::main", nil)

func init() {
	configFile = flag.String("config", util.Env.GetServerConfigFile(), "YAML file containing server settings")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return errors.Wrap(err, "Error while opening room store")
	}
	defer closeStore()

	users, err := caches.NewUserDirectory(config.UserCacheSize)
	if err != nil {
		return errors.Wrap(err, "Error while creating user directory")
	}
	registry := room.NewRegistry(room.WithUserDirectory(users))
	registry.Restore(ctx, store)
	arena := game.NewArena()

	var publisher rest.GamePublisher
	var gateway *nats.Gateway
	if natsURL := util.Env.GetNatsURL(); natsURL != "" {
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		opts := []nats.GatewayOption{
			nats.WithContentStateLimit(config.ContentStateRate, config.ContentStateBurst),
			nats.WithRequestTimeout(config.NatsRequestTimeout()),
		}
		if nodeID := util.Env.GetNodeID(); nodeID != "" {
			opts = append(opts, nats.WithNodeID(nodeID))
		}
		gateway, err = nats.NewGateway(natsURL, registry, opts...)
		if err != nil {
			return errors.Wrap(err, "Error while creating sync gateway")
		}
		mainLogger.Info().Str(logging.NodeIDKey, gateway.NodeID()).Msg("Sync gateway ready")
		defer gateway.Close()
		registry.AddListener(gateway)
		if _, err := gateway.CatchUp(); err != nil {
			mainLogger.Warn().Err(err).Msg("Unable to catch up with peers")
		}
		publisher = gateway
	} else {
		mainLogger.Info().Msg("NATS_URL is not set, running without sync")
	}

	server := rest.NewServer(registry, arena, publisher)
	if gateway != nil {
		gateway.AddGameHandler(server.RememberRemoteGame)
	}

	go snapshotLoop(ctx, registry, store, config.SnapshotInterval())

	httpServer := server.HTTPServer(config.ListenAddr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	mainLogger.Info().Msgf("Listening on %s", config.ListenAddr)
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "REST server failed")
	}

	// Final snapshot so a restart picks up where this process stopped.
	persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := registry.Persist(persistCtx, store); err != nil {
		mainLogger.Error().Err(err).Msg("Final snapshot failed")
	}
	mainLogger.Info().Msg("Server stopped")
	return nil
}

func loadConfig(file string) (util.ServerConfig, error) {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		mainLogger.Warn().Msgf("Server config [%s] not found, using defaults", file)
		return util.DefaultServerConfig(), nil
	}
	config, err := util.ParseServerConfig(file)
	if err != nil {
		return util.ServerConfig{}, errors.Wrap(err, "Error while parsing server config")
	}
	return config, nil
}

func openStore(ctx context.Context) (room.Store, func(), error) {
	method := util.Env.GetPersistMethod()
	mainLogger.Info().Str(logging.StoreKey, method).Msg("Opening room store")
	switch method {
	case util.PersistRedis:
		store := room.NewRedisStore(util.Env.GetRedisAddr(), util.Env.GetRedisPW(), util.Env.GetRedisDB(), "")
		return store, func() { store.Close() }, nil
	case util.PersistPostgres:
		store, err := room.OpenPostgresStore(ctx, util.Env.GetPostgresConnStr())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return room.NewMemoryStore(), func() {}, nil
}

func snapshotLoop(ctx context.Context, registry *room.Registry, store room.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := registry.Persist(ctx, store); err != nil {
				mainLogger.Error().Err(err).Msg("Periodic snapshot failed")
			}
		}
	}
}
