package syncer

import "time"

// Policy selects how conflicting files are resolved.
type Policy string

const (
	PolicyManual       Policy = "MANUAL"
	PolicyPreferLocal  Policy = "PREFER_LOCAL"
	PolicyPreferMirror Policy = "PREFER_MIRROR"
	PolicyPreferNewer  Policy = "PREFER_NEWER"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyManual, PolicyPreferLocal, PolicyPreferMirror, PolicyPreferNewer:
		return Policy(s), true
	case "":
		return PolicyManual, true
	default:
		return "", false
	}
}

// FileRecord identifies one regular file under a scan root.
type FileRecord struct {
	RelPath string
	Size    int64
	ModTime time.Time
}

// Inventory maps slash-separated relative paths to their records. It is
// built once per scan root per run and never mutated afterwards.
type Inventory map[string]FileRecord

type ActionType string

const (
	ActionCopyToMirror ActionType = "COPY_TO_MIRROR"
	ActionCopyToLocal  ActionType = "COPY_TO_LOCAL"
	ActionSkip         ActionType = "SKIP"
	ActionConflict     ActionType = "CONFLICT"
)

// Action classifies one relative path from the merged inventories. HasLocal
// and HasMirror mark on which sides the file exists.
type Action struct {
	RelPath   string
	Type      ActionType
	Local     FileRecord
	Mirror    FileRecord
	HasLocal  bool
	HasMirror bool
}

// Conflict is a path that diverged on both sides with no unambiguous newer
// version. It carries everything a human or policy needs to decide.
type Conflict struct {
	RelPath        string    `json:"relative_path"`
	LocalPath      string    `json:"local_path"`
	MirrorPath     string    `json:"mirror_path"`
	LocalModified  time.Time `json:"local_modified"`
	MirrorModified time.Time `json:"mirror_modified"`
	LocalSize      int64     `json:"local_size"`
	MirrorSize     int64     `json:"mirror_size"`
}

// Result summarizes one orchestration run.
type Result struct {
	Success     bool       `json:"success"`
	FilesSynced int        `json:"files_synced"`
	Conflicts   []Conflict `json:"conflicts"`
	SoftErrors  []string   `json:"soft_errors,omitempty"`
}

// Phase is the observable state of a run.
type Phase string

const (
	PhaseIdle             Phase = "IDLE"
	PhaseScanning         Phase = "SCANNING"
	PhaseDiffing          Phase = "DIFFING"
	PhaseConflictsPending Phase = "CONFLICTS_PENDING"
	PhaseCopying          Phase = "COPYING"
	PhaseCompleted        Phase = "COMPLETED"
	PhaseFailed           Phase = "FAILED"
)

// RunRecord is handed to the Recorder after each completed run. Persistence
// of these records lives outside this package.
type RunRecord struct {
	LocalPath   string
	MirrorPath  string
	Policy      Policy
	FilesSynced int
	Conflicts   int
	Failed      int
	Success     bool
	ErrMsg      string
	Duration    time.Duration
	FinishedAt  time.Time
}

// Recorder receives a structured record of each completed run.
type Recorder interface {
	Record(record RunRecord)
}
