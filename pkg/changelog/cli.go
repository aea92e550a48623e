package changelog

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/consumer"
	"github.com/travigo/departureboard/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

// Directory is where the weekly log files live inside the data directory
func Directory(cfg config.Config) string {
	return filepath.Join(cfg.DataDirectory, "logs")
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "changelog",
		Usage: "Writes the weekly schedule change log",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "consume queued change records and append them to the weekly log",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stats-listen",
						Usage: "address of the queue stats server",
						Value: ":3333",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}
					if err := redis_client.Connect(cfg.Redis); err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: 1,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewBatchConsumer(NewWriter(Directory(cfg))),
						StatsListen:     c.String("stats-listen"),
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals
					go func() {
						<-signals // hard exit on second signal
						os.Exit(1)
					}()

					log.Info().Msg("Stopping changelog consumers")
					<-redis_client.QueueConnection.StopAllConsuming()

					return nil
				},
			},
		},
	}
}

// NewLogger picks the queue when redis is connected, otherwise writes directly
func NewLogger(cfg config.Config) Logger {
	if redis_client.Enabled() {
		queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
		if err == nil {
			return &QueueLogger{Queue: queue}
		}

		log.Warn().Err(err).Msg("Failed to open changelog queue, writing directly")
	}

	return NewWriter(Directory(cfg))
}
