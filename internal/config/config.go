// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot token, the
// link allow-list, broadcast scheduling, logging, the ops endpoint and
// observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ErrMissingToken is returned by Load when BOT_TOKEN is unset or blank.
var ErrMissingToken = errors.New("BOT_TOKEN must be set")

// DefaultAllowedDomains is the built-in allow-list of news and market sites
// whose links may be posted in the group.
var DefaultAllowedDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"cnbc.com",
	"yahoo.com",
	"investing.com",
	"tradingview.com",
	"arabnews.com",
	"aawsat.com",
}

// DefaultBroadcastChatIDs are the chats that receive the periodic notice
// when BROADCAST_CHAT_IDS is not provided.
var DefaultBroadcastChatIDs = []int64{-1002150232021}

const (
	// DefaultWarningText is posted to the chat after a sender is banned.
	DefaultWarningText = "🚫 تم حظر مستخدم بسبب نشر رابط مخالف.\n🛡 القروب محمي تلقائيًا."

	// DefaultBroadcastText is the periodic reassurance notice.
	DefaultBroadcastText = "🛡 الحماية مفعّلة 24/7"

	// DefaultAPIEndpoint is the Bot API URL template (token, method).
	DefaultAPIEndpoint = "https://api.telegram.org/bot%s/%s"
)

// TelegramConfig defines how the bot talks to the Bot API.
type TelegramConfig struct {
	Token       string        // BOT_TOKEN (required)
	APIEndpoint string        // TELEGRAM_API_ENDPOINT, fmt template with two %s
	PollTimeout time.Duration // TELEGRAM_POLL_TIMEOUT, long-poll wait
	Debug       bool          // TELEGRAM_DEBUG
}

// ModerationConfig defines the link policy applied to group messages.
type ModerationConfig struct {
	AllowedDomains   []string // ALLOWED_DOMAINS (CSV)
	LooseSuffixMatch bool     // ALLOWLIST_LOOSE_SUFFIX
	WarningText      string   // WARNING_TEXT
}

// BroadcastConfig defines the periodic reassurance notice.
type BroadcastConfig struct {
	Enabled    bool          // BROADCAST_ENABLED
	ChatIDs    []int64       // BROADCAST_CHAT_IDS (CSV)
	FirstDelay time.Duration // BROADCAST_FIRST_DELAY
	Interval   time.Duration // BROADCAST_INTERVAL
	Text       string        // BROADCAST_TEXT
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	Telegram   TelegramConfig
	Moderation ModerationConfig
	Broadcast  BroadcastConfig

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Ops endpoint (/health, /metrics); empty address disables it
	OpsAddr string
	GinMode string // debug|release|test

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	chatIDs, err := getint64s("BROADCAST_CHAT_IDS", DefaultBroadcastChatIDs)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Telegram: TelegramConfig{
			Token:       strings.TrimSpace(os.Getenv("BOT_TOKEN")),
			APIEndpoint: getenv("TELEGRAM_API_ENDPOINT", DefaultAPIEndpoint),
			PollTimeout: getdur("TELEGRAM_POLL_TIMEOUT", 60*time.Second),
			Debug:       getbool("TELEGRAM_DEBUG", false),
		},
		Moderation: ModerationConfig{
			AllowedDomains:   normalizeDomains(getcsv("ALLOWED_DOMAINS", DefaultAllowedDomains)),
			LooseSuffixMatch: getbool("ALLOWLIST_LOOSE_SUFFIX", false),
			WarningText:      getenv("WARNING_TEXT", DefaultWarningText),
		},
		Broadcast: BroadcastConfig{
			Enabled:    getbool("BROADCAST_ENABLED", true),
			ChatIDs:    chatIDs,
			FirstDelay: getdur("BROADCAST_FIRST_DELAY", 20*time.Second),
			Interval:   getdur("BROADCAST_INTERVAL", 3*time.Hour),
			Text:       getenv("BROADCAST_TEXT", DefaultBroadcastText),
		},

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		OpsAddr: strings.TrimSpace(getenvAllowEmpty("OPS_ADDR", ":9090")),
		GinMode: strings.ToLower(getenv("GIN_MODE", "release")),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-link-guard"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if cfg.Telegram.Token == "" {
		return cfg, ErrMissingToken
	}
	if strings.Count(cfg.Telegram.APIEndpoint, "%s") != 2 {
		return cfg, errors.New("TELEGRAM_API_ENDPOINT must contain two %s verbs (token, method)")
	}
	if cfg.Telegram.PollTimeout < time.Second {
		return cfg, errors.New("TELEGRAM_POLL_TIMEOUT must be >= 1s")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Moderation.WarningText) == "" {
		return cfg, errors.New("WARNING_TEXT must not be empty")
	}
	if cfg.Broadcast.FirstDelay < 0 {
		return cfg, errors.New("BROADCAST_FIRST_DELAY must be >= 0")
	}
	if cfg.Broadcast.Interval <= 0 {
		return cfg, errors.New("BROADCAST_INTERVAL must be > 0")
	}
	if strings.TrimSpace(cfg.Broadcast.Text) == "" {
		return cfg, errors.New("BROADCAST_TEXT must not be empty")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty distinguishes "unset" from "set to empty" so that an
// explicit empty value can switch a feature off.
func getenvAllowEmpty(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getcsv(k string, def []string) []string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return splitCSV(v)
	}
	return append([]string(nil), def...)
}

// getint64s parses a CSV list of chat identifiers. Unlike the scalar getters
// a malformed entry is an error: silently dropping a chat is worse than
// refusing to start.
func getint64s(k string, def []int64) ([]int64, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return append([]int64(nil), def...), nil
	}
	out := make([]int64, 0)
	for _, p := range splitCSV(v) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid chat id %q", k, p)
		}
		out = append(out, id)
	}
	return lo.Uniq(out), nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(s, ","), func(p string, _ int) (string, bool) {
		t := strings.TrimSpace(p)
		return t, t != ""
	})
}

// normalizeDomains lowercases entries, drops a leading "www." or "." and
// removes duplicates while keeping the configured order.
func normalizeDomains(in []string) []string {
	out := lo.Map(in, func(d string, _ int) string {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		return strings.TrimPrefix(d, ".")
	})
	return lo.Uniq(lo.Compact(out))
}
