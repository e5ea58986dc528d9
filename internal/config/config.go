package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MinPollMinutes           = 3
	DefaultPollMinutes       = 20
	DefaultSafetyBuffer      = 120
	DefaultPreserveThreshold = 7000
)

type Config struct {
	PollInterval time.Duration
	InstanceID   int
	LogLevel     string

	Game     GameConfig
	Telegram TelegramConfig
	Defense  DefenseConfig

	DatabaseURL string
	Port        string
}

type GameConfig struct {
	BaseURL   string
	Cookie    string
	UserAgent string
	Timeout   time.Duration
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
	Wait     time.Duration
}

// DefenseConfig is read-only operator policy for automatic pirate defense.
type DefenseConfig struct {
	Enabled bool
	// MaxSpend caps capture points spent per conversion; 0 means no cap.
	MaxSpend            int
	SafetyBufferSeconds int
	PreserveThreshold   int
	AllowBelowThreshold bool
}

// SetDefaults registers every key so env lookups work without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("poll_minutes", DefaultPollMinutes)
	v.SetDefault("instance_id", os.Getpid())
	v.SetDefault("log_level", "info")

	v.SetDefault("game.base_url", "")
	v.SetDefault("game.cookie", "")
	v.SetDefault("game.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	v.SetDefault("game.timeout", "30s")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.wait", "30s")

	v.SetDefault("defense.enabled", false)
	v.SetDefault("defense.max_spend", 0)
	v.SetDefault("defense.safety_buffer_seconds", DefaultSafetyBuffer)
	v.SetDefault("defense.preserve_threshold", DefaultPreserveThreshold)
	v.SetDefault("defense.allow_below_threshold", false)

	v.SetDefault("database_url", "")
	v.SetDefault("port", "8080")

	v.SetEnvPrefix("LOOKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v. Call SetDefaults (and optionally ReadInConfig) first.
func Load(v *viper.Viper) (*Config, error) {
	minutes := v.GetInt("poll_minutes")
	if minutes < MinPollMinutes {
		return nil, fmt.Errorf("poll_minutes must be at least %d, got %d", MinPollMinutes, minutes)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("game.base_url")), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("game.base_url is required")
	}

	maxSpend := v.GetInt("defense.max_spend")
	if maxSpend < 0 {
		return nil, fmt.Errorf("defense.max_spend must not be negative, got %d", maxSpend)
	}
	buffer := v.GetInt("defense.safety_buffer_seconds")
	if buffer < 0 {
		return nil, fmt.Errorf("defense.safety_buffer_seconds must not be negative, got %d", buffer)
	}
	threshold := v.GetInt("defense.preserve_threshold")
	if threshold < 0 {
		return nil, fmt.Errorf("defense.preserve_threshold must not be negative, got %d", threshold)
	}

	token := strings.TrimSpace(v.GetString("telegram.bot_token"))
	chatID := v.GetInt64("telegram.chat_id")
	if token != "" && chatID == 0 {
		return nil, fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	wait := v.GetDuration("telegram.wait")
	if wait < time.Second {
		return nil, fmt.Errorf("telegram.wait must be at least 1s, got %s", wait)
	}

	return &Config{
		PollInterval: time.Duration(minutes) * time.Minute,
		InstanceID:   v.GetInt("instance_id"),
		LogLevel:     v.GetString("log_level"),
		Game: GameConfig{
			BaseURL:   baseURL,
			Cookie:    v.GetString("game.cookie"),
			UserAgent: v.GetString("game.user_agent"),
			Timeout:   v.GetDuration("game.timeout"),
		},
		Telegram: TelegramConfig{
			BotToken: token,
			ChatID:   chatID,
			Wait:     wait,
		},
		Defense: DefenseConfig{
			Enabled:             v.GetBool("defense.enabled"),
			MaxSpend:            maxSpend,
			SafetyBufferSeconds: buffer,
			PreserveThreshold:   threshold,
			AllowBelowThreshold: v.GetBool("defense.allow_below_threshold"),
		},
		DatabaseURL: v.GetString("database_url"),
		Port:        v.GetString("port"),
	}, nil
}
