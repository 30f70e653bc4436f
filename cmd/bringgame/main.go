package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/twiml"
	"google.golang.org/api/option"

	"bringgame/internal/config"
	"bringgame/internal/voice"
	"bringgame/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	h, err := webhook.NewHandler(log.With("component", "webhook"))
	if err != nil {
		log.Error("failed to create fulfillment handler", "err", err)
		os.Exit(1)
	}

	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Post("/fulfillment", h.Fulfillment)

	if cfg.VoiceEnabled() {
		mountVoice(app, cfg, log.With("component", "voice"))
	} else {
		log.Info("voice bridge disabled, serving fulfillment only")
	}

	if err := app.Listen(cfg.Addr); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func mountVoice(app *fiber.App, cfg config.Config, log *slog.Logger) {
	twilioClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("hostname", c.Hostname())
			c.Locals("ctx", c.Context())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Twilio fetches this when a call comes in and connects the media
	// stream to our websocket.
	app.Post("/voice", func(c *fiber.Ctx) error {
		stream := &twiml.VoiceStream{Url: fmt.Sprintf("wss://%s/ws/media", c.Hostname())}
		connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
		return sendTwiml(c, connect)
	})

	app.Get("/ws/media", websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		ctx := conn.Locals("ctx").(context.Context)
		host := conn.Locals("hostname").(string)

		bcfg := voice.Config{
			ProjectID:    cfg.DialogflowProjectID,
			WelcomeEvent: cfg.WelcomeEvent,
			LanguageCode: cfg.LanguageCode,
			HandoffURL:   handoffURL(cfg, host),
		}
		if cfg.CredentialsFile != "" {
			bcfg.Credentials = option.WithCredentialsFile(cfg.CredentialsFile)
		}

		bridge, err := voice.NewBridge(bcfg, twilioClient.Api, log)
		if err != nil {
			log.Error("failed to create voice bridge", "err", err)
			return
		}
		defer bridge.Close()

		if err := bridge.Connect(ctx); err != nil {
			log.Error("failed to open dialogflow session", "err", err)
			return
		}

		if err := bridge.Serve(conn); err != nil {
			log.Error("voice session ended with error", "err", err)
		}
	}))

	// Finished calls get redirected here.
	app.Post("/handoff", func(c *fiber.Ctx) error {
		say := &twiml.VoiceSay{Message: "Thanks for playing, goodbye!"}
		hangup := &twiml.VoiceHangup{}
		return sendTwiml(c, say, hangup)
	})
}

func handoffURL(cfg config.Config, host string) string {
	if cfg.HandoffURL != "" {
		return cfg.HandoffURL
	}
	return fmt.Sprintf("https://%s/handoff", host)
}

func sendTwiml(c *fiber.Ctx, verbs ...twiml.Element) error {
	c.Set("Content-type", "application/xml; charset=utf-8")

	xml, err := twiml.Voice(verbs)
	if err != nil {
		return fmt.Errorf("failed to create voice response: %w", err)
	}

	return c.SendString(xml)
}
