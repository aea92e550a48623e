package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/api"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	// a missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	if os.Getenv("DEPARTUREBOARD_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("DEPARTUREBOARD_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "departureboard",
		Description: "Personal departure board merging a local schedule with a live station feed",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path of the yaml configuration file",
				Value:   "departureboard.yaml",
				EnvVars: []string{"DEPARTUREBOARD_CONFIG"},
			},
		},

		Commands: []*cli.Command{
			api.RegisterCLI(),
			board.RegisterCLI(),
			changelog.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
