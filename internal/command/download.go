package command

import (
	"context"
	"fmt"

	"github.com/hitomidl/hitomidl/internal/download"
	"github.com/hitomidl/hitomidl/internal/model"
)

// CreateDownloadTask implements the create_download_task command.
func (a *App) CreateDownloadTask(ctx context.Context, comic model.Comic) error {
	if err := a.manager.Create(ctx, comic, a.downloadDir(), a.downloadFormat(), a.dirTemplate()); err != nil {
		return fmt.Errorf("create download task for comic %d: %w", comic.ID, err)
	}
	return nil
}

// PauseDownloadTask implements the pause_download_task command.
func (a *App) PauseDownloadTask(id int) error {
	return a.manager.Pause(id)
}

// ResumeDownloadTask implements the resume_download_task command.
func (a *App) ResumeDownloadTask(ctx context.Context, id int) error {
	return a.manager.Resume(ctx, id, a.downloadDir(), a.dirTemplate())
}

// CancelDownloadTask implements the cancel_download_task command.
func (a *App) CancelDownloadTask(id int) error {
	return a.manager.Cancel(id)
}

// GetDownloadTask returns the current snapshot of task id, for callers that
// want to poll rather than subscribe to events.
func (a *App) GetDownloadTask(id int) (model.DownloadTask, bool) {
	return a.manager.Snapshot(id)
}

// ListDownloadTasks returns every task the manager currently knows about.
func (a *App) ListDownloadTasks() []model.DownloadTask {
	return a.manager.List()
}

// SubscribeDownloadTaskEvents registers ch to receive every task Create/Update
// event, mirroring the event stream the out-of-scope UI command surface
// subscribes to.
func (a *App) SubscribeDownloadTaskEvents(ch chan<- model.DownloadTaskEvent) {
	a.manager.SubscribeTaskEvents(ch)
}

// SubscribeDownloadSpeedEvents registers ch to receive the 1Hz aggregate
// throughput stream.
func (a *App) SubscribeDownloadSpeedEvents(ch chan<- model.DownloadSpeedEvent) {
	a.manager.SubscribeSpeedEvents(ch)
}

// GetDownloadedComics implements the get_downloaded_comics command.
func (a *App) GetDownloadedComics() ([]model.Comic, error) {
	comics, err := download.ScanDownloaded(a.downloadDir())
	if err != nil {
		return nil, fmt.Errorf("scan downloaded comics: %w", err)
	}
	return comics, nil
}
