package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/biz/usecase"
	"github.com/robomo/discord-bridge/internal/conf"
	"github.com/robomo/discord-bridge/internal/data"
	"github.com/robomo/discord-bridge/internal/infra/discord"
	"github.com/robomo/discord-bridge/internal/metrics"
	"github.com/robomo/discord-bridge/internal/server"
	"github.com/robomo/discord-bridge/internal/service"
)

func main() {
	// Load .env file if present
	envLoaded := godotenv.Load() == nil

	cfg := conf.LoadFromEnv()
	log := newLogger(cfg.Debug)

	if !envLoaded {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Secret resolution is lazy and memoized; a missing credential at this
	// point is fatal, the supervisor restarts us.
	secretsRepo, err := data.NewSecretsManagerRepo(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize secret store")
	}
	secrets := usecase.NewSecretCache(secretsRepo, log)
	secrets.SetEnvOverride(cfg.Discord.TokenSecretName, cfg.Discord.TokenEnvVar)
	secrets.SetEnvOverride(cfg.Slack.TokenSecretName, cfg.Slack.TokenEnvVar)

	discordToken, err := secrets.Get(ctx, cfg.Discord.TokenSecretName)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot resolve discord bot token")
	}
	if cfg.Discord.TokenField != "" {
		discordToken = usecase.ExtractField(discordToken, cfg.Discord.TokenField)
	}

	slackToken, err := secrets.Get(ctx, cfg.Slack.TokenSecretName)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot resolve slack token")
	}
	if cfg.Slack.TokenField != "" {
		slackToken = usecase.ExtractField(slackToken, cfg.Slack.TokenField)
	}

	gateway, err := discord.New(discordToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord client")
	}

	relay := data.NewSlackRepo(slackToken)
	robomo := data.NewRoboMoClient(cfg.RoboMo.Endpoint, cfg.RoboMo.ChainPath, log)

	router := usecase.NewRouter(
		cfg.ToRouterConfig(),
		cfg.NewRateWindow(),
		usecase.NewDeliverer(cfg.ToRetryPolicy(), log),
		relay,
		robomo,
		gateway,
		log,
	)

	srv := server.NewDiscordServer(gateway, router, log)

	reindexer := service.NewReindexScheduler(robomo, cfg.RoboMo.IndexName, cfg.RoboMo.ReindexInterval, log)
	reindexer.Start()

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener started")
			if err := metrics.ListenAndServe(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("gateway connection failed")
	}
	log.Info().Msg("bridge running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	reindexer.Stop()
	srv.Stop()
}

func newLogger(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger
}
