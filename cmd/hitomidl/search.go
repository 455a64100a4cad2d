package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func searchCmd(app *command.App) *cli.Command {
	var query string
	var page int64
	var popular bool

	return &cli.Command{
		Name:  "search",
		Usage: "search hitomi.la by query",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "1-based page number", Destination: &page, Value: 1},
			&cli.BoolFlag{Name: "popular", Usage: "sort by popularity instead of upload date", Destination: &popular},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query", UsageText: "<query>", Destination: &query, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			result, err := app.Search(ctx, query, int(page), popular)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}
