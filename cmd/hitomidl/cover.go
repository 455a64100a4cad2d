package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func coverCmd(app *command.App) *cli.Command {
	var url string
	var out string

	return &cli.Command{
		Name:  "cover",
		Usage: "download a comic's cover image to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file path", Destination: &out, Value: "cover.webp"},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url", UsageText: "<cover-url>", Destination: &url, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			data, err := app.GetCoverData(ctx, url)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write cover to %s: %w", out, err)
			}
			return nil
		},
	}
}
