package main

import (
	"context"
	"sort"

	"github.com/jeandeaual/go-locale"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hitomidl/hitomidl/internal/command"
	"github.com/hitomidl/hitomidl/internal/model"
)

func libraryCmd(app *command.App) *cli.Command {
	var localeTag string

	return &cli.Command{
		Name:  "library",
		Usage: "inspect already-downloaded comics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "locale",
				Aliases:     []string{"l"},
				Usage:       "IETF BCP 47 language tag to be used as sorting language",
				Destination: &localeTag,
			},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			comics, err := app.GetDownloadedComics()
			if err != nil {
				return err
			}
			sortComicsByTitle(comics, localeTag)
			return printJSON(comics)
		},
	}
}

// sortComicsByTitle orders the listing with a collator for localeTag, the
// user's system locale when no tag is given, or American English when
// neither resolves.
func sortComicsByTitle(comics []model.Comic, localeTag string) {
	if localeTag == "" {
		if systemLocale, err := locale.GetLocale(); err == nil {
			localeTag = systemLocale
		}
	}

	langTag := language.AmericanEnglish
	if parsed, err := language.Parse(localeTag); err == nil {
		langTag = parsed
	}

	c := collate.New(langTag)
	sort.Slice(comics, func(i, j int) bool {
		return c.CompareString(comics[i].Title, comics[j].Title) < 0
	})
}
