package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bigmini/auth-service/auth"
	"github.com/bigmini/auth-service/email"
	"github.com/bigmini/auth-service/internal/config"
	fakeproviderrepo "github.com/bigmini/auth-service/providers/repofake"
	"github.com/bigmini/auth-service/server"
	"github.com/bigmini/auth-service/server/oauthprovider"
	"github.com/bigmini/auth-service/store/postgres"
	"github.com/bigmini/auth-service/token"
	fakeuserrepo "github.com/bigmini/auth-service/users/repofake"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.MustLoad()
	displayAppname(cfg.AppName)

	logger := newLogger(cfg.Env)

	ctx := context.Background()
	repos, mail, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tokens := token.New(
		token.NewHMACSigner(cfg.AccessTokenSecret),
		token.NewHMACSigner(cfg.RefreshTokenSecret),
		token.NewHMACSigner(cfg.VerificationTokenSecret),
		token.WithTokenExpiry(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.VerificationTokenTTL),
	)

	authService, err := auth.NewService(repos, tokens, mail,
		auth.WithLogger(logger),
		auth.WithAppBaseURL(cfg.AppBaseURL),
	)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	registry := buildOAuthRegistry(ctx, cfg, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(cfg, authService, registry, logger),
	}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildDependencies wires the store-backed repositories, or the in-memory
// ones when no database is configured.
func buildDependencies(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.Repos, email.Sender, error) {
	var mail email.Sender
	if cfg.SMTPAccount != "" {
		mail = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPAccount, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		logger.Warn().Msg("no SMTP account configured, verification mail is logged instead of delivered")
		mail = logSender{logger: logger}
	}

	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("no DATABASE_URL configured, using in-memory repositories")
		return auth.Repos{
			Users:     fakeuserrepo.NewFakeUserRepo(),
			Providers: fakeproviderrepo.NewFakeProviderRepo(),
		}, mail, nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return auth.Repos{}, nil, fmt.Errorf("postgres.Connect: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return auth.Repos{}, nil, fmt.Errorf("postgres.EnsureSchema: %w", err)
	}

	return auth.Repos{
		Users:     postgres.NewUserRepo(pool),
		Providers: postgres.NewProviderRepo(pool),
	}, mail, nil
}

// buildOAuthRegistry configures an adapter per provider with credentials.
// Providers without credentials are simply absent from the registry.
func buildOAuthRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *oauthprovider.Registry {
	var adapters []oauthprovider.Adapter

	callback := func(provider string) string {
		return cfg.ServerBaseURL + "/api/auth/" + provider + "/callback"
	}

	if cfg.GoogleClientID != "" {
		google, err := oauthprovider.NewGoogleAdapter(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, callback("google"))
		if err != nil {
			logger.Error().Err(err).Msg("google adapter unavailable")
		} else {
			adapters = append(adapters, google)
		}
	}
	if cfg.FacebookClientID != "" {
		adapters = append(adapters, oauthprovider.NewFacebookAdapter(cfg.FacebookClientID, cfg.FacebookClientSecret, callback("facebook")))
	}
	if cfg.DiscordClientID != "" {
		adapters = append(adapters, oauthprovider.NewDiscordAdapter(cfg.DiscordClientID, cfg.DiscordClientSecret, callback("discord")))
	}

	return oauthprovider.NewRegistry(adapters...)
}

// logSender is the local-development stand-in for SMTP delivery.
type logSender struct {
	logger zerolog.Logger
}

func (s logSender) SendVerification(_ context.Context, recipient, verificationURL string) error {
	s.logger.Info().Str("recipient", recipient).Str("url", verificationURL).Msg("verification mail")
	return nil
}

func newLogger(env string) zerolog.Logger {
	if env == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
