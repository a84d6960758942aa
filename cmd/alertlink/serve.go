package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gofrs/flock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/alertlink/internal/adapter/llm"
	"github.com/xiaot623/gogo/alertlink/internal/advisory"
	"github.com/xiaot623/gogo/alertlink/internal/channel"
	"github.com/xiaot623/gogo/alertlink/internal/channel/hub"
	"github.com/xiaot623/gogo/alertlink/internal/channel/telegram"
	"github.com/xiaot623/gogo/alertlink/internal/channel/ws"
	"github.com/xiaot623/gogo/alertlink/internal/config"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/policy"
	"github.com/xiaot623/gogo/alertlink/internal/service"
	"github.com/xiaot623/gogo/alertlink/internal/session"
	"github.com/xiaot623/gogo/alertlink/internal/store"
	transport "github.com/xiaot623/gogo/alertlink/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noBanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch API and the chat channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !noBanner {
				figure.NewFigure("alertlink", "cybermedium", true).Print()
				fmt.Println()
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	lock := flock.New(cfg.Server.LockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another alertlink instance holds %s", cfg.Server.LockFile)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info().Int("http_port", cfg.Server.HTTPPort).Int("ws_port", cfg.Server.WSPort).
		Str("database", cfg.Database.URL).Str("llm", cfg.LLM.BaseURL).Msg("starting alertlink")

	db, err := store.NewSQLiteStore(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}
	llmClient := llm.NewLLMClient(cfg.Mode, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.GenerationTimeout())
	generator := advisory.NewLLMGenerator(llmClient, policyEngine, cfg.LLM.Model)

	router := channel.NewRouter()
	svc := service.New(db, generator, router, cfg)
	machine := session.NewMachine(svc)

	h := hub.NewHub()
	go h.Run(ctx)
	wsServer := ws.NewServer(cfg, h, machine)
	router.Register(domain.ChannelWebSocket, wsServer)

	botDone := make(chan struct{})
	if cfg.TelegramEnabled() {
		api, err := telegram.Dial(cfg.Telegram.Token, cfg.Telegram.PollTimeoutSec)
		if err != nil {
			return err
		}
		bot := telegram.New(api, machine, cfg.Telegram.PollTimeoutSec)
		router.Register(domain.ChannelTelegram, bot)
		go func() {
			defer close(botDone)
			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("telegram channel stopped")
			}
		}()
	} else {
		close(botDone)
		log.Warn().Msg("telegram token not set, telegram channel disabled")
	}

	apiServer := transport.NewAPIServer(svc)
	channelServer := transport.NewChannelServer(wsServer)

	errCh := make(chan error, 2)
	start := func(name string, e *echo.Echo, port int) {
		addr := fmt.Sprintf(":%d", port)
		log.Info().Str("server", name).Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go start("api", apiServer, cfg.Server.HTTPPort)
	go start("channel", channelServer, cfg.Server.WSPort)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info().Msg("shutting down alertlink")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown api server gracefully")
	}
	if err := channelServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown channel server gracefully")
	}

	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("telegram channel did not stop in time")
	}

	log.Info().Msg("alertlink stopped")
	return runErr
}
