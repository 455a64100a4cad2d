package command

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitomidl/hitomidl/internal/download"
	"github.com/hitomidl/hitomidl/internal/model"
)

const pageSize = 25

// SearchResult carries a full result id list alongside the comics materialized
// for one page of it. The id list lets the
// caller request further pages without re-running the query.
type SearchResult struct {
	IDs       []int32       `json:"ids"`
	Comics    []model.Comic `json:"comics"`
	TotalPage int           `json:"total_page"`
}

// Search implements the search command: runs the query against the remote
// index, then materializes the comics of page pageNum.
func (a *App) Search(ctx context.Context, query string, pageNum int, sortByPopularity bool) (SearchResult, error) {
	set, err := a.index.Search(ctx, query, sortByPopularity)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %q: %w", query, err)
	}
	return a.paginate(ctx, set.Slice(), pageNum)
}

// GetPage implements the get_page command: re-paginates a previously
// returned id list without querying the index again.
func (a *App) GetPage(ctx context.Context, ids []int32, pageNum int) (SearchResult, error) {
	return a.paginate(ctx, ids, pageNum)
}

func (a *App) paginate(ctx context.Context, ids []int32, pageNum int) (SearchResult, error) {
	if pageNum < 1 {
		pageNum = 1
	}

	totalPage := (len(ids) + pageSize - 1) / pageSize

	start := (pageNum - 1) * pageSize
	if start > len(ids) {
		start = len(ids)
	}
	end := start + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	pageIDs := ids[start:end]

	comics := make([]model.Comic, len(pageIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, id := range pageIDs {
		i, id := i, id
		g.Go(func() error {
			comic, err := a.gallery.Get(gctx, int(id))
			if err != nil {
				return fmt.Errorf("fetch gallery %d: %w", id, err)
			}
			comics[i] = comic
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	return SearchResult{IDs: ids, Comics: comics, TotalPage: totalPage}, nil
}

// GetComic implements the get_comic command: fetches a single gallery and
// syncs its on-disk download status.
func (a *App) GetComic(ctx context.Context, id int) (model.Comic, error) {
	comic, err := a.gallery.Get(ctx, id)
	if err != nil {
		return model.Comic{}, fmt.Errorf("get comic %d: %w", id, err)
	}
	return a.GetSyncedComic(comic), nil
}

// GetSyncedComic implements the get_synced_comic command: re-derives
// IsDownloaded/DirName for an already-held comic by re-matching against the
// download directory.
func (a *App) GetSyncedComic(comic model.Comic) model.Comic {
	return download.Sync(a.downloadDir(), comic)
}

// GetSearchSuggestions implements the get_search_suggestions command.
func (a *App) GetSearchSuggestions(ctx context.Context, query string) ([]model.Suggestion, error) {
	suggestions, err := a.index.Suggestions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get search suggestions for %q: %w", query, err)
	}
	return suggestions, nil
}
