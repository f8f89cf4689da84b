package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/akhilbawari/taskpal/internal/services"
	"github.com/akhilbawari/taskpal/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var calendar *services.GoogleCalendarService
	if config.Credentials.Google.ClientID != "" && config.Credentials.Google.ClientSecret != "" {
		if svc, err := services.NewGoogleCalendarService(map[string]string{
			"client_id":     config.Credentials.Google.ClientID,
			"client_secret": config.Credentials.Google.ClientSecret,
			"redirect_uri":  config.Credentials.Google.RedirectURI,
		}); err == nil {
			calendar = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Calendar: calendar,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "taskpal",
		Usage:    "Task hierarchy with Google Calendar sync",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrSyncFailed) {
			logger.Warnf("completed with sync warnings: %v", err)
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
