package model

// TaskState is a DownloadTask's lifecycle state.
type TaskState int

const (
	StatePending TaskState = iota
	StateDownloading
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StateDownloading:
		return "Downloading"
	case StatePaused:
		return "Paused"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	default:
		return "Pending"
	}
}

// IsTerminal reports whether the state is one of the three terminal states.
func (s TaskState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

func (s TaskState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// DownloadTask is the externally-visible snapshot of one active or terminal
// download. The manager owns the authoritative copy; this
// struct is what its Snapshot and List return to commands. The task's watch
// channel carries only the TaskState.
type DownloadTask struct {
	Comic                Comic          `json:"comic"`
	State                TaskState      `json:"state"`
	DownloadedImgCount   int            `json:"downloaded_img_count"`
	TotalImgCount        int            `json:"total_img_count"`
	Format               DownloadFormat `json:"format"`
}

// DownloadImgTask is one image within a task.
type DownloadImgTask struct {
	URL     string
	TempDir string
	Index   int // 0-based ordinal within the comic's file list
}
