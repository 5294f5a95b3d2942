package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"3001"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30"`
	TelegramStartDelay  int    `env:"TELEGRAM_START_DELAY_SECONDS" envDefault:"5"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SweepIntervalMinutes int      `env:"SWEEP_INTERVAL_MINUTES" envDefault:"0"`
	CORSOrigins          []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080,http://localhost:3000,https://parkent.vercel.app"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
