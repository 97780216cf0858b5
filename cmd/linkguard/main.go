// Command linkguard runs the Telegram link-moderation bot: it long-polls the
// Bot API, removes messages carrying disallowed links and bans their senders,
// posts a periodic protection notice, and serves /health and /metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-guard/internal/bot"
	"github.com/tbourn/go-link-guard/internal/classifier"
	"github.com/tbourn/go-link-guard/internal/config"
	"github.com/tbourn/go-link-guard/internal/domain"
	httpapi "github.com/tbourn/go-link-guard/internal/http"
	"github.com/tbourn/go-link-guard/internal/observability"
	"github.com/tbourn/go-link-guard/internal/services"
	"github.com/tbourn/go-link-guard/internal/sysutil"
	"github.com/tbourn/go-link-guard/internal/telegram"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const traceFlushTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkguard: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components and blocks until SIGINT/SIGTERM. Deferred
// cleanup runs before main exits.
func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("trace flush failed")
		}
	}()

	client, err := telegram.New(cfg.Telegram, log.With().Str("component", "telegram").Logger())
	if err != nil {
		return err
	}
	log.Info().
		Str("bot", client.Username()).
		Int64("bot_id", client.ID()).
		Str("version", version).
		Strs("allowed_domains", cfg.Moderation.AllowedDomains).
		Msg("bot started")

	moderator := newModerator(cfg.Moderation, client, log)

	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.Broadcast.Enabled && len(cfg.Broadcast.ChatIDs) > 0 {
		b := &services.Broadcaster{
			Sender:     client,
			ChatIDs:    cfg.Broadcast.ChatIDs,
			Text:       cfg.Broadcast.Text,
			FirstDelay: cfg.Broadcast.FirstDelay,
			Interval:   cfg.Broadcast.Interval,
			Log:        log.With().Str("component", "broadcaster").Logger(),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx)
		}()
	}

	var polling atomic.Bool
	if cfg.OpsAddr != "" {
		router := httpapi.NewRouter(cfg, log.With().Str("component", "ops").Logger(), func() error {
			if !polling.Load() {
				return errors.New("update loop not running")
			}
			return nil
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(ctx, cfg.OpsAddr, router, log); err != nil {
				log.Error().Err(err).Msg("ops server stopped")
			}
		}()
	}

	runner := bot.NewRunner(client, func(ctx context.Context, m *domain.Message) error {
		_, err := moderator.Handle(ctx, m)
		return err
	}, log.With().Str("component", "moderation").Logger())

	polling.Store(true)
	err = runner.Run(ctx)
	polling.Store(false)
	stop()

	if err != nil {
		return fmt.Errorf("update loop: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}

func newModerator(cfg config.ModerationConfig, client *telegram.Client, log zerolog.Logger) *services.Moderator {
	opts := []classifier.Option{classifier.WithAllowedDomains(cfg.AllowedDomains...)}
	if cfg.LooseSuffixMatch {
		opts = append(opts, classifier.WithLooseSuffixMatch())
	}

	svcLog := log.With().Str("component", "moderation").Logger()
	return services.NewModerator(
		services.NewAdminChecker(client, svcLog),
		classifier.New(opts...),
		services.NewEnforcer(client, cfg.WarningText, svcLog),
		svcLog,
	)
}
