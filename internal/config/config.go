package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config is the full service configuration, read once at startup.
type Config struct {
	Addr     string
	LogLevel slog.Level

	DialogflowProjectID string
	CredentialsFile     string
	WelcomeEvent        string
	LanguageCode        string

	TwilioAccountSID string
	TwilioAuthToken  string
	HandoffURL       string
}

// Load reads configuration from the environment, preloading a local .env
// file when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:                getenv("ADDR", ":3000"),
		WelcomeEvent:        getenv("WELCOME_EVENT", "Welcome"),
		LanguageCode:        getenv("LANGUAGE_CODE", "en-US"),
		DialogflowProjectID: os.Getenv("DIALOGFLOW_PROJECT_ID"),
		CredentialsFile:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		HandoffURL:          os.Getenv("HANDOFF_URL"),
	}

	level := getenv("LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("config: bad LOG_LEVEL %q: %w", level, err)
	}

	if (cfg.TwilioAccountSID == "") != (cfg.TwilioAuthToken == "") {
		return Config{}, errors.New("config: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set together")
	}
	if cfg.TwilioAccountSID != "" && cfg.DialogflowProjectID == "" {
		return Config{}, errors.New("config: the voice bridge needs DIALOGFLOW_PROJECT_ID")
	}

	return cfg, nil
}

// VoiceEnabled reports whether the Twilio voice bridge should be mounted.
// Without Twilio credentials the service still serves the fulfillment
// webhook.
func (c Config) VoiceEnabled() bool {
	return c.DialogflowProjectID != "" && c.TwilioAccountSID != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
