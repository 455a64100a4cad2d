package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/logging"
	"github.com/hitomidl/hitomidl/internal/model"
)

// GetCoverData implements the get_cover_data command: fetches coverURL
// through the "cover" client (no retry policy) and returns
// the raw image bytes for the caller to embed.
func (a *App) GetCoverData(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build cover request: %s", hitomierr.ErrNetwork, err)
	}

	resp, err := a.pool.Cover.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cover %s: %w", coverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cover %s returned status %d", hitomierr.ErrUnexpectedStatus, coverURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read cover body: %s", hitomierr.ErrNetwork, err)
	}
	return data, nil
}

// GetLogsDirSize implements the get_logs_dir_size command.
func (a *App) GetLogsDirSize() (uint64, error) {
	size, err := logging.LogsDirSize(a.logsDir())
	if err != nil {
		return 0, fmt.Errorf("get logs dir size: %w", err)
	}
	return size, nil
}

// SubscribeLogEvents registers ch to receive every LogEvent emitted through
// the process-wide logger, mirroring the task/speed event subscription entry points in
// internal/command/download.go.
func (a *App) SubscribeLogEvents(ch chan<- model.LogEvent) {
	logging.Subscribe(ch)
}

// ShowPathInFileManager implements the show_path_in_file_manager command.
// This command's contract is named but not specified in detail; this is the obvious concrete
// filling, one OS-native file manager invocation per platform.
func ShowPathInFileManager(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to reveal %s: %s", hitomierr.ErrFilesystem, path, err)
	}
	// The file manager process outlives this call; Wait would block on it.
	go func() { _ = cmd.Wait() }()
	return nil
}
