package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func revealCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:  "reveal",
		Usage: "open a path in the OS file manager",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path", UsageText: "<path>", Destination: &path, Min: 1, Max: 1},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			return command.ShowPathInFileManager(path)
		},
	}
}
