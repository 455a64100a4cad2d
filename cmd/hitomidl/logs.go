package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func logsCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "inspect the application's log files",
		Commands: []*cli.Command{
			{
				Name:  "size",
				Usage: "print the total size of the logs directory",
				Action: func(_ context.Context, _ *cli.Command) error {
					size, err := app.GetLogsDirSize()
					if err != nil {
						return err
					}
					fmt.Println(humanize.Bytes(size))
					return nil
				},
			},
		},
	}
}
