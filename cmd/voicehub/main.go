package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/duskline/voicehub/internal/config"
	"github.com/duskline/voicehub/internal/hub"
	"github.com/duskline/voicehub/internal/httpapi"
	"github.com/duskline/voicehub/internal/identity"
	"github.com/duskline/voicehub/internal/metrics"
	"github.com/duskline/voicehub/internal/originpolicy"
	"github.com/duskline/voicehub/internal/presence"
	"github.com/duskline/voicehub/internal/pushsvc"
	"github.com/duskline/voicehub/internal/redisutil"
	"github.com/duskline/voicehub/internal/rooms"
	"github.com/duskline/voicehub/internal/signaling"
	"github.com/duskline/voicehub/internal/turnauth"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.StartupLog {
		log.Info().Interface("config", cfg).Msg("startup configuration")
	}

	redisClient := redisutil.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log.Logger)
	defer redisClient.Close()

	var mirror rooms.MembershipMirror = rooms.NoopMirror{}
	if redisClient != nil && redisClient.Raw() != nil {
		mirror = rooms.NewRedisMirror(redisClient.Raw(), log.Logger)
	}

	presenceReg := presence.New()
	roomsReg := rooms.NewRegistry(presenceReg.Get)
	pushStore := pushsvc.NewStore()

	var sink pushsvc.Sink = pushsvc.NoopSink{}
	if cfg.PushEnabled() {
		sink = pushsvc.NewHTTPSink(cfg.PushGatewayURL, log.Logger)
	}

	m := metrics.New()

	engineCfg := signaling.Config{
		Turn: turnauth.Config{
			URLs:         cfg.TurnURLs,
			Secret:       cfg.TurnSecret,
			UsernameTTL:  cfg.TurnUsernameTTL,
			RelayMinPort: cfg.TurnRelayMinPort,
			RelayMaxPort: cfg.TurnRelayMaxPort,
		},
	}
	engine := signaling.New(
		presenceReg,
		roomsReg,
		pushStore,
		sink,
		mirror,
		m,
		engineCfg,
		identity.NewID,
		func() string { return uuid.NewString() },
		log.Logger,
	)

	policy := originpolicy.New(cfg.Allowed)
	h := hub.New(engine, policy, log.Logger)
	router := httpapi.NewRouter(cfg, h, m, policy)

	addr := cfg.Host + ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("voicehub listening")
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("voicehub exited gracefully")
}
