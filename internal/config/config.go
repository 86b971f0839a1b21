package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// GameConfig настройки игровой сессии
type GameConfig struct {
	TurnTimer    time.Duration `env:"TURN_TIMER" envDefault:"30s"`
	EscapeTimer  time.Duration `env:"ESCAPE_TIMER" envDefault:"15s"`
	ShopTimer    time.Duration `env:"SHOP_TIMER" envDefault:"20s"`
	WinThreshold int           `env:"WIN_THRESHOLD" envDefault:"100"`
	MinPlayers   int           `env:"MIN_PLAYERS" envDefault:"2"`
	MaxPlayers   int           `env:"MAX_PLAYERS" envDefault:"6"`
	ShopEnabled  bool          `env:"SHOP_ENABLED" envDefault:"true"`
	RoundPause   time.Duration `env:"ROUND_PAUSE" envDefault:"3s"`

	// события на локациях
	EventChance float64 `env:"EVENT_CHANCE" envDefault:"0.3"`
	MaxEvents   int     `env:"MAX_EVENTS" envDefault:"2"`
}

// SeekerConfig настройки искателя (температура softmax и уровни поведения)
type SeekerConfig struct {
	BaseTemperature  float64       `env:"BASE_TEMPERATURE" envDefault:"0.35"`
	MinTemperature   float64       `env:"MIN_TEMPERATURE" envDefault:"0.05"`
	MaxTemperature   float64       `env:"MAX_TEMPERATURE" envDefault:"2.0"`
	SpreadThreshold  float64       `env:"SPREAD_THRESHOLD" envDefault:"0.1"`
	HighScoreGuard   float64       `env:"HIGH_SCORE_GUARD" envDefault:"0.8"`
	ColdStreakRounds int           `env:"COLD_STREAK_ROUNDS" envDefault:"3"`
	EarlyRounds      int           `env:"EARLY_ROUNDS" envDefault:"3"`
	MidRounds        int           `env:"MID_ROUNDS" envDefault:"6"`
	DecayRate        float64       `env:"DECAY_RATE" envDefault:"0.3"`
	ModelBlend       float64       `env:"MODEL_BLEND" envDefault:"0.7"`
	ModelKey         string        `env:"MODEL_KEY" envDefault:"lootrun:seeker:model"`
	ModelRefresh     time.Duration `env:"MODEL_REFRESH" envDefault:"1m"`
}

type Config struct {
	AppPort       string `env:"APP_PORT" envDefault:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	Game   GameConfig   `envPrefix:"GAME_"`
	Seeker SeekerConfig `envPrefix:"SEEKER_"`
}

// Load читает .env (если он есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Game.WinThreshold <= 0 {
		return fmt.Errorf("GAME_WIN_THRESHOLD must be positive, got %d", c.Game.WinThreshold)
	}
	if c.Game.MinPlayers < 1 {
		return fmt.Errorf("GAME_MIN_PLAYERS must be at least 1, got %d", c.Game.MinPlayers)
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("GAME_MAX_PLAYERS (%d) is below GAME_MIN_PLAYERS (%d)", c.Game.MaxPlayers, c.Game.MinPlayers)
	}
	if c.Game.EventChance < 0 || c.Game.EventChance > 1 {
		return fmt.Errorf("GAME_EVENT_CHANCE must be within [0, 1], got %v", c.Game.EventChance)
	}
	if c.Seeker.MinTemperature <= 0 || c.Seeker.MaxTemperature < c.Seeker.MinTemperature {
		return fmt.Errorf("invalid seeker temperature band [%v, %v]", c.Seeker.MinTemperature, c.Seeker.MaxTemperature)
	}
	if c.Seeker.ModelBlend < 0 || c.Seeker.ModelBlend > 1 {
		return fmt.Errorf("SEEKER_MODEL_BLEND must be within [0, 1], got %v", c.Seeker.ModelBlend)
	}
	return nil
}

// JSONLogs сообщает, включен ли JSON формат логов
func (c *Config) JSONLogs() bool {
	return c.LogFormat == "json"
}
