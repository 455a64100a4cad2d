// Command hitomidl is a CLI front end for the hitomidl library: the
// command.App methods are exposed here as urfave/cli/v3 subcommands.
// GetPage, GetSyncedComic, GetDownloadTask and the speed and log event
// subscriptions have no subcommand.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hitomidl/hitomidl/internal/command"
)

func main() {
	app, err := command.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	root := &cli.Command{
		Name:    "hitomidl",
		Usage:   "download and manage comics from hitomi.la",
		Version: "0.1.0",
		Commands: []*cli.Command{
			configCmd(app),
			searchCmd(app),
			comicCmd(app),
			downloadCmd(app),
			libraryCmd(app),
			exportCmd(app),
			suggestCmd(app),
			coverCmd(app),
			logsCmd(app),
			revealCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
