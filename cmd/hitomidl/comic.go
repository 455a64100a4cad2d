package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func comicCmd(app *command.App) *cli.Command {
	var id int64

	return &cli.Command{
		Name:  "comic",
		Usage: "fetch a single gallery by id",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "id", UsageText: "<id>", Destination: &id, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			comic, err := app.GetComic(ctx, int(id))
			if err != nil {
				return err
			}
			return printJSON(comic)
		},
	}
}
