package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"

	"github.com/hitomidl/hitomidl/internal/dirname"
	"github.com/hitomidl/hitomidl/internal/hitomi/gg"
	"github.com/hitomidl/hitomidl/internal/hitomi/httpclient"
	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/logging"
	"github.com/hitomidl/hitomidl/internal/model"
)

const (
	comicPermits = 2
	imagePermits = 4
)

// Manager is the process-wide download manager: admission control over
// comic- and image-level concurrency, a task table, and the
// 1Hz aggregate speed emitter. The zero value is not usable; construct with
// New.
type Manager struct {
	gg   *gg.Table
	http *httpclient.Pool

	comicSem *semaphore.Weighted
	imgSem   *semaphore.Weighted

	bytesThisTick atomic.Int64

	mu    sync.RWMutex
	tasks map[int]*taskHandle

	eventsMu sync.Mutex
	events   []chan<- model.DownloadTaskEvent
	speedSub []chan<- model.DownloadSpeedEvent

	ticker *time.Ticker
	done   chan struct{}
}

// taskHandle is the manager's private record of one submitted download; the
// exported model.DownloadTask is derived from it on demand.
type taskHandle struct {
	mu sync.Mutex

	comic   model.Comic
	format  model.DownloadFormat
	dirName string

	state              *watch[model.TaskState]
	downloadedImgCount int
	totalImgCount      int

	downloadDir string
	ctx         context.Context
	cancel      context.CancelFunc
}

func (t *taskHandle) snapshot() model.DownloadTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.DownloadTask{
		Comic:              t.comic,
		State:              t.state.Get(),
		DownloadedImgCount: t.downloadedImgCount,
		TotalImgCount:      t.totalImgCount,
		Format:             t.format,
	}
}

// New builds a Manager. gg is used to synthesize per-image CDN URLs;
// http is the process's client pool, whose "image" client serves the
// image GETs.
func New(gg *gg.Table, http *httpclient.Pool) *Manager {
	m := &Manager{
		gg:       gg,
		http:     http,
		comicSem: semaphore.NewWeighted(comicPermits),
		imgSem:   semaphore.NewWeighted(imagePermits),
		tasks:    make(map[int]*taskHandle),
		done:     make(chan struct{}),
	}
	m.ticker = time.NewTicker(1 * time.Second)
	go m.speedLoop()
	return m
}

// Close stops the manager's background speed emitter. It does not cancel
// in-flight tasks.
func (m *Manager) Close() {
	close(m.done)
	m.ticker.Stop()
}

// speedLoop ticks once a second, swapping the byte accumulator to zero
// and publishing the resulting throughput.
func (m *Manager) speedLoop() {
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C:
			n := m.bytesThisTick.Swap(0)
			speed := humanize.Bytes(uint64(n)) + "/s"
			m.publishSpeed(model.DownloadSpeedEvent{Speed: speed})
		}
	}
}

// SubscribeTaskEvents registers ch to receive every DownloadTaskEvent this
// manager emits. ch is never closed by this package.
func (m *Manager) SubscribeTaskEvents(ch chan<- model.DownloadTaskEvent) {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()
	m.events = append(m.events, ch)
}

// SubscribeSpeedEvents registers ch to receive the 1Hz DownloadSpeedEvent
// stream.
func (m *Manager) SubscribeSpeedEvents(ch chan<- model.DownloadSpeedEvent) {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()
	m.speedSub = append(m.speedSub, ch)
}

func (m *Manager) publish(evt model.DownloadTaskEvent) {
	m.eventsMu.Lock()
	subs := append([]chan<- model.DownloadTaskEvent(nil), m.events...)
	m.eventsMu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (m *Manager) publishSpeed(evt model.DownloadSpeedEvent) {
	m.eventsMu.Lock()
	subs := append([]chan<- model.DownloadSpeedEvent(nil), m.speedSub...)
	m.eventsMu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Create submits comic for download. If a task for this id already
// exists in Pending|Downloading|Paused, Create is a no-op. downloadDir,
// format and dirTemplate are captured for the lifetime of this task;
// later config changes never affect an in-flight download.
func (m *Manager) Create(ctx context.Context, comic model.Comic, downloadDir string, format model.DownloadFormat, dirTemplate string) error {
	m.mu.Lock()
	if existing, ok := m.tasks[comic.ID]; ok {
		state := existing.state.Get()
		if state == model.StatePending || state == model.StateDownloading || state == model.StatePaused {
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()

	dirName, err := dirname.Render(dirTemplate, comic.TemplateParams())
	if err != nil {
		return fmt.Errorf("create task for comic %d: %w", comic.ID, err)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	t := &taskHandle{
		comic:         comic,
		format:        format,
		dirName:       dirName,
		state:         newWatch(model.StatePending),
		totalImgCount: len(comic.Files),
		downloadDir:   downloadDir,
		ctx:           taskCtx,
		cancel:        cancel,
	}

	m.mu.Lock()
	m.tasks[comic.ID] = t
	m.mu.Unlock()

	created := t.snapshot()
	m.publish(model.DownloadTaskEvent{
		Kind:          model.DownloadTaskEventCreate,
		ComicID:       comic.ID,
		State:         created.State,
		TotalImgCount: created.TotalImgCount,
		Comic:         &created.Comic,
	})

	go m.drive(t)

	return nil
}

// Pause transitions a task to Paused.
func (m *Manager) Pause(id int) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	t.state.Set(model.StatePaused)
	m.emitUpdate(t)
	return nil
}

// Resume transitions a task back toward Downloading. If the task is
// terminal, a fresh task is re-submitted for the same Comic; otherwise
// the existing task is nudged back to Pending.
func (m *Manager) Resume(ctx context.Context, id int, downloadDir string, dirTemplate string) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}

	if t.state.Get().IsTerminal() {
		return m.Create(ctx, t.comic, downloadDir, t.format, dirTemplate)
	}

	t.state.Set(model.StatePending)
	m.emitUpdate(t)
	return nil
}

// Cancel transitions a task to Cancelled.
func (m *Manager) Cancel(id int) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	t.state.Set(model.StateCancelled)
	t.cancel()
	m.emitUpdate(t)
	return nil
}

func (m *Manager) lookup(id int) (*taskHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, hitomierr.ErrNotFound)
	}
	return t, nil
}

func (m *Manager) emitUpdate(t *taskHandle) {
	snap := t.snapshot()
	m.publish(model.DownloadTaskEvent{
		Kind:               model.DownloadTaskEventUpdate,
		ComicID:            snap.Comic.ID,
		State:              snap.State,
		DownloadedImgCount: snap.DownloadedImgCount,
		TotalImgCount:      snap.TotalImgCount,
	})
}

// Snapshot returns the current state of task id.
func (m *Manager) Snapshot(id int) (model.DownloadTask, bool) {
	m.mu.RLock()
	t, ok := m.tasks[id]
	m.mu.RUnlock()
	if !ok {
		return model.DownloadTask{}, false
	}
	return t.snapshot(), true
}

// List returns a snapshot of every known task, in no particular order.
func (m *Manager) List() []model.DownloadTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.DownloadTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.snapshot())
	}
	return out
}

// addBytes bumps the 1Hz throughput accumulator.
func (m *Manager) addBytes(n int64) {
	m.bytesThisTick.Add(n)
}

func logError(format string, args ...any) {
	logging.Errorf("download", format, args...)
}

func logInfo(format string, args ...any) {
	logging.Infof("download", format, args...)
}

func logWarn(format string, args ...any) {
	logging.Warnf("download", format, args...)
}
