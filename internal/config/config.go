package config

import (
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string   `mapstructure:"PORT"`
	DatabasePath                  string   `mapstructure:"DATABASE_PATH"`
	SeedFile                      string   `mapstructure:"SEED_FILE"`
	DiscordClientID               string   `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string   `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string   `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string   `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string   `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string   `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	JWTSecret                     string   `mapstructure:"JWT_SECRET"`
	FrontendURL                   string   `mapstructure:"FRONTEND_URL"`
	AdminDiscordIDs               []string `mapstructure:"ADMIN_DISCORD_IDS"`
	AdminRole                     string   `mapstructure:"ADMIN_ROLE"`
	SMTPHost                      string   `mapstructure:"SMTP_HOST"`
	SMTPPort                      int      `mapstructure:"SMTP_PORT"`
	SMTPUser                      string   `mapstructure:"SMTP_USER"`
	SMTPPassword                  string   `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom                      string   `mapstructure:"SMTP_FROM"`
	LogLevel                      string   `mapstructure:"LOG_LEVEL"`
	LogFormat                     string   `mapstructure:"LOG_FORMAT"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "registration.db")
	viper.SetDefault("SEED_FILE", "")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/my-registrants")
	viper.SetDefault("ADMIN_DISCORD_IDS", []string{})
	viper.SetDefault("ADMIN_ROLE", "registrar")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_GUILD_ID")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("SMTP_HOST")
	viper.BindEnv("SMTP_USER")
	viper.BindEnv("SMTP_PASSWORD")
	viper.BindEnv("SMTP_FROM")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config")
	}

	return &config
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func (c *Config) IsAdminDiscordID(discordID string) bool {
	return discordID != "" && slices.Contains(c.AdminDiscordIDs, discordID)
}
