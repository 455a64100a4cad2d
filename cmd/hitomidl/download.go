package main

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
	"github.com/hitomidl/hitomidl/internal/logging"
	"github.com/hitomidl/hitomidl/internal/model"
)

func downloadCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "manage download tasks",
		Commands: []*cli.Command{
			downloadCreateCmd(app),
			downloadTaskActionCmd(app, "pause", "pause a running download", app.PauseDownloadTask),
			downloadCancelCmd(app),
			downloadResumeCmd(app),
			downloadListCmd(app),
			downloadWatchCmd(app),
		},
	}
}

func downloadCreateCmd(app *command.App) *cli.Command {
	var id int64

	return &cli.Command{
		Name:  "create",
		Usage: "download a gallery by id, blocking until it finishes",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "id", UsageText: "<id>", Destination: &id, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			comic, err := app.GetComic(ctx, int(id))
			if err != nil {
				return err
			}

			logging.Banner([]string{
				fmt.Sprintf("Comic: %s", comic.Title),
				fmt.Sprintf("Pages: %d", len(comic.Files)),
			}, 2)

			// Subscribe before creating so the Create event is never missed.
			taskEvents := make(chan model.DownloadTaskEvent, 32)
			app.SubscribeDownloadTaskEvents(taskEvents)

			if err := app.CreateDownloadTask(ctx, comic); err != nil {
				return err
			}

			bar := progressbar.Default(int64(len(comic.Files)), comic.Title)
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case evt := <-taskEvents:
					if evt.ComicID != comic.ID {
						continue
					}
					bar.Set(evt.DownloadedImgCount)
					if evt.State.IsTerminal() {
						bar.Finish()
						if evt.State != model.StateCompleted {
							return fmt.Errorf("download of comic %d ended as %s", comic.ID, evt.State)
						}
						return nil
					}
				}
			}
		},
	}
}

func downloadTaskActionCmd(app *command.App, name, usage string, action func(int) error) *cli.Command {
	var id int64

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "id", UsageText: "<id>", Destination: &id, Min: 1, Max: 1},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			return action(int(id))
		},
	}
}

func downloadCancelCmd(app *command.App) *cli.Command {
	return downloadTaskActionCmd(app, "cancel", "cancel a download task", app.CancelDownloadTask)
}

func downloadResumeCmd(app *command.App) *cli.Command {
	var id int64

	return &cli.Command{
		Name:  "resume",
		Usage: "resume a paused or failed download task",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "id", UsageText: "<id>", Destination: &id, Min: 1, Max: 1},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return app.ResumeDownloadTask(ctx, int(id))
		},
	}
}

func downloadListCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list every known download task",
		Action: func(_ context.Context, _ *cli.Command) error {
			return printJSON(app.ListDownloadTasks())
		},
	}
}

// downloadWatchCmd renders live progress bars for every task event the
// manager emits, one bar per in-flight comic.
func downloadWatchCmd(app *command.App) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "print download progress as it happens until interrupted",
		Action: func(ctx context.Context, _ *cli.Command) error {
			taskEvents := make(chan model.DownloadTaskEvent, 32)
			app.SubscribeDownloadTaskEvents(taskEvents)

			bars := map[int]*progressbar.ProgressBar{}

			for {
				select {
				case <-ctx.Done():
					return nil
				case evt := <-taskEvents:
					bar, ok := bars[evt.ComicID]
					if !ok {
						title := fmt.Sprintf("comic %d", evt.ComicID)
						if evt.Comic != nil {
							title = evt.Comic.Title
						}
						bar = progressbar.Default(int64(evt.TotalImgCount), title)
						bars[evt.ComicID] = bar
					}
					bar.Set(evt.DownloadedImgCount)
					if evt.State.IsTerminal() {
						bar.Finish()
					}
				}
			}
		},
	}
}
