package main

import (
	"fmt"
	"log/slog"
	"nlcal/internal/config"
	"nlcal/internal/extractor"
	"nlcal/internal/google"
	"nlcal/internal/ics"
	"nlcal/internal/models"
	"nlcal/internal/scheduler"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const defaultQuery = "set up a meeting about vacation with chris on Nov 21-Nov 26."

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "nlcal",
		Usage: "Create Google Calendar events from plain-language requests.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "nlcal.toml", Usage: "Path to an optional TOML config file."},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error. Overrides LOG_LEVEL."},
		},
		Commands: []*cli.Command{
			authCommand(),
			scheduleCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func newCalendarClient(cfg *config.Config, logger *slog.Logger) (*google.CalendarClient, error) {
	oauthCfg, oauthErr := google.LoadOAuthConfig(cfg.GoogleClientID, cfg.GoogleSecret, cfg.ClientSecretFile)
	if oauthErr != nil {
		logger.Debug("OAuth client secret unavailable", "error", oauthErr)
	}
	return google.NewClient(logger, google.Config{
		OAuth:    oauthCfg,
		OAuthErr: oauthErr,
		Store:    google.FileTokenStore{Path: cfg.TokenFile},
		Consent: &google.LocalServerFlow{
			Logger:      logger,
			Out:         os.Stdout,
			OpenBrowser: google.OpenBrowser,
		},
		CalendarID: cfg.CalendarID,
		Timeout:    cfg.Timeout,
	})
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize calendar access and save the token.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Info("Starting Google authentication flow.")

			client, err := newCalendarClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}
			if err := client.Authorize(c.Context); err != nil {
				return err
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.TokenFile)
			return nil
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Create a calendar event from a plain-language request.",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Usage: "Chat model. Overrides OPENAI_MODEL."},
			&cli.StringFlag{Name: "timezone", Usage: "Reference time zone. Overrides REFERENCE_TIMEZONE."},
			&cli.PathFlag{Name: "ics", Usage: "Also write the created event to this .ics file."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("model") {
				cfg.Model = c.String("model")
			}
			if c.IsSet("timezone") {
				cfg.ReferenceTimeZone = c.String("timezone")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			ex, err := extractor.New(logger, extractor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
				extractor.WithModel(cfg.Model),
				extractor.WithLocation(loc),
				extractor.WithTimeout(cfg.Timeout),
			)
			if err != nil {
				return fmt.Errorf("failed to create extractor: %w", err)
			}

			calClient, err := newCalendarClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			s := scheduler.NewScheduler(logger, ex, calClient)
			if path := c.Path("ics"); path != "" {
				s.WithExporter(func(event *models.Event, link string) error {
					return ics.WriteFile(path, event, link)
				})
			}

			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				query = defaultQuery
			}

			if link, ok := s.ScheduleMeeting(c.Context, query); ok {
				fmt.Printf("Meeting scheduled successfully! Link: %s\n", link)
			} else {
				fmt.Println("Failed to schedule meeting")
			}
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
