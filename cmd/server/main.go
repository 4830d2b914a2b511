package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/gdg-garage/session-registration-api/internal/config"
	"github.com/gdg-garage/session-registration-api/internal/database"
	"github.com/gdg-garage/session-registration-api/internal/handlers"
	"github.com/gdg-garage/session-registration-api/internal/notifier"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	// Load Configuration
	cfg := config.LoadConfig()
	setupLogger(cfg)

	// Connect to Database
	db := database.Connect(cfg)

	if cfg.SeedFile != "" {
		if err := database.SeedFile(db, cfg.SeedFile); err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("Failed to seed reference data")
		}
	}

	// Refuse to serve with a fee table that cannot price every age.
	calc, err := database.LoadCalculator(context.Background(), db)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fee configuration")
	}
	log.Info().
		Int("event_days", calc.TotalEventDays()).
		Int("max_day_attender_age", calc.Rates().MaxAge()).
		Msg("Fee configuration loaded")

	// Initialize Notifiers
	var notifiers notifier.Multi
	var roles auth.RoleChecker
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Error().Err(err).Msg("Discord notifier not initialized")
		} else {
			discordNotifier := notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID, cfg.DiscordGuildID)
			if cfg.DiscordNotificationsChannelID != "" {
				notifiers = append(notifiers, discordNotifier)
			}
			if cfg.DiscordGuildID != "" {
				roles = discordNotifier
			}
		}
	}
	if cfg.MailEnabled() {
		notifiers = append(notifiers, notifier.NewMailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	log.Info().Int("notifiers", len(notifiers)).Msg("Notifiers initialized")

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db, roles)
	h := handlers.Handlers{
		Auth:        authHandler,
		Reference:   handlers.NewReferenceHandler(db),
		Registrants: handlers.NewRegistrantHandler(db, notifiers, authHandler),
		Admin:       handlers.NewAdminHandler(db, authHandler),
		APIKeys:     handlers.NewAPIKeyHandler(db, authHandler),
	}

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
