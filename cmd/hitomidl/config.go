package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func configCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect or update config.json",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current config",
				Action: func(_ context.Context, _ *cli.Command) error {
					return printJSON(app.GetConfig())
				},
			},
			setConfigCmd(app),
		},
	}
}

func setConfigCmd(app *command.App) *cli.Command {
	var path string

	return &cli.Command{
		Name:  "set",
		Usage: "overwrite config.json from a JSON file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", UsageText: "<file>", Destination: &path, Min: 1, Max: 1},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read config file %s: %w", path, err)
			}
			cfg := app.GetConfig()
			if err := json.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("parse config file %s: %w", path, err)
			}
			return app.SaveConfig(cfg)
		},
	}
}
