package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
	"github.com/hitomidl/hitomidl/internal/export"
	"github.com/hitomidl/hitomidl/internal/model"
)

func exportCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "bundle a downloaded comic into an archive",
		Commands: []*cli.Command{
			exportFormatCmd(app, "pdf", app.ExportPDF),
			exportFormatCmd(app, "cbz", app.ExportCBZ),
		},
	}
}

func exportFormatCmd(app *command.App, format string, do func(model.Comic, export.Notifier) error) *cli.Command {
	var id int64

	return &cli.Command{
		Name:  format,
		Usage: fmt.Sprintf("export a downloaded comic to %s", format),
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "id", UsageText: "<id>", Destination: &id, Min: 1, Max: 1},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			comic, err := findDownloaded(app, int(id))
			if err != nil {
				return err
			}

			notify := export.NotifierFunc(func(evt model.ExportEvent) {
				switch evt.Kind {
				case model.ExportEventStart:
					fmt.Printf("exporting %s to %s...\n", evt.Title, evt.Format)
				case model.ExportEventEnd:
					fmt.Printf("done: %s\n", evt.Title)
				case model.ExportEventError:
					fmt.Printf("failed: %s: %s\n", evt.Title, evt.Error)
				}
			})

			return do(comic, notify)
		},
	}
}

func findDownloaded(app *command.App, id int) (model.Comic, error) {
	comics, err := app.GetDownloadedComics()
	if err != nil {
		return model.Comic{}, err
	}
	for _, c := range comics {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Comic{}, fmt.Errorf("comic %d is not downloaded", id)
}
