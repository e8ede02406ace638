package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the service needs at construction time. Components
// never read the environment themselves; they are handed the values they need.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"auth-service"`
	Env     string `env:"APP_ENV" envDefault:"DEV"`
	Port    string `env:"PORT" envDefault:"8080"`

	// ServerBaseURL is where this service is reachable (OAuth callbacks).
	// AppBaseURL is the frontend that hosts /verify/{token} and the
	// post-login landing page.
	ServerBaseURL string `env:"SERVER_BASE_URL" envDefault:"http://localhost:8080"`
	AppBaseURL    string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	CORSOrigin    string `env:"CORS_ORIGIN" envDefault:"*"`

	// Empty DatabaseURL keeps the service on the in-memory repositories,
	// which is only useful for local development.
	DatabaseURL string `env:"DATABASE_URL"`

	// Three independent signing secrets: compromise of one token class must
	// not allow forging the others.
	AccessTokenSecret       string `env:"JWT_ACCESS_SECRET_KEY"`
	RefreshTokenSecret      string `env:"JWT_REFRESH_SECRET_KEY"`
	VerificationTokenSecret string `env:"JWT_EMAIL_VERIFICATION_SECRET_KEY"`

	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"1h"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPAccount  string `env:"SMTP_ACCOUNT"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"VERIFICATION_EMAIL_ADDRESS"`

	GoogleClientID       string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_OAUTH_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_OAUTH_CLIENT_SECRET"`
	DiscordClientID      string `env:"DISCORD_OAUTH_CLIENT_ID"`
	DiscordClientSecret  string `env:"DISCORD_OAUTH_CLIENT_SECRET"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
