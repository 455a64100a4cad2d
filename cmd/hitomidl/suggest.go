package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func suggestCmd(app *command.App) *cli.Command {
	var query string

	return &cli.Command{
		Name:  "suggest",
		Usage: "fetch search suggestions for a partial query",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query", UsageText: "<query>", Destination: &query, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			suggestions, err := app.GetSearchSuggestions(ctx, query)
			if err != nil {
				return err
			}
			return printJSON(suggestions)
		},
	}
}
