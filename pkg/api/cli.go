package api

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/metrics"
	"github.com/travigo/departureboard/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the departure board web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, overrides the config file",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}
					if listen := c.String("listen"); listen != "" {
						cfg.Listen = listen
					}

					if err := redis_client.Connect(cfg.Redis); err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
					defer stop()

					collector := metrics.NewCollector()
					departureBoard, err := board.Setup(ctx, cfg, collector)
					if err != nil {
						return err
					}
					if err := departureBoard.Start(ctx); err != nil {
						log.Error().Err(err).Msg("Initial board load failed")
					}

					go departureBoard.RunPoller(ctx)

					webApp := NewApp(departureBoard, collector, cfg.WebDirectory)

					go func() {
						<-ctx.Done()
						log.Info().Msg("Shutting down web server")

						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						if err := webApp.ShutdownWithContext(shutdownCtx); err != nil {
							log.Error().Err(err).Msg("Failed to shut down web server")
						}
					}()

					log.Info().Str("listen", cfg.Listen).Msg("Starting web server")
					return webApp.Listen(cfg.Listen)
				},
			},
		},
	}
}
