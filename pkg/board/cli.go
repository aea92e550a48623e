package board

import (
	"context"
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/departureboard"
	"github.com/travigo/departureboard/pkg/metrics"
	"github.com/travigo/departureboard/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Inspect the departure board from the command line",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current board projection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "announcements",
						Usage: "print every announcement instead of the board",
					},
				},
				Action: func(c *cli.Context) error {
					b, err := loadBoard(c)
					if err != nil {
						return err
					}

					now := b.Now()
					if c.Bool("announcements") {
						set := b.Normalized(now)
						classification := departureboard.Classify(set.Display, set.Local, now)
						pretty.Println(departureboard.CompileAnnouncements(classification, now, b.options.Departure))
						return nil
					}

					pretty.Println(b.Board(now))
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the departure list as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "file to write, standard output when empty",
					},
				},
				Action: func(c *cli.Context) error {
					b, err := loadBoard(c)
					if err != nil {
						return err
					}

					csv, err := departureboard.ExportCSV(b.Board(b.Now()))
					if err != nil {
						return err
					}

					output := c.String("output")
					if output == "" {
						_, err = os.Stdout.Write(csv)
						return err
					}

					if err := os.WriteFile(output, csv, 0o644); err != nil {
						return fmt.Errorf("writing %s: %w", output, err)
					}
					log.Info().Str("file", output).Msg("Exported departure list")

					return nil
				},
			},
		},
	}
}

func loadBoard(c *cli.Context) (*Board, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := redis_client.Connect(cfg.Redis); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if c.Context != nil {
		ctx = c.Context
	}

	b, err := Setup(ctx, cfg, metrics.NewCollector())
	if err != nil {
		return nil, err
	}
	if err := b.Start(ctx); err != nil {
		return nil, err
	}

	return b, nil
}
