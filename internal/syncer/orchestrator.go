package syncer

import (
	"context"
	"errors"
	"fmt"
	"memcard/internal/logger"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSyncInProgress is returned when a run is requested for a path pair that
// already has a run in flight. Interleaved runs on the same pair could race
// on the same destination files, so they are rejected rather than queued.
var ErrSyncInProgress = errors.New("sync already in progress for this path pair")

type Options struct {
	Tolerance  time.Duration
	Parallel   int
	IgnoreList []string
	Recorder   Recorder
}

type Request struct {
	LocalPath  string
	MirrorPath string
	Policy     Policy
}

// Orchestrator sequences scan, diff, resolve and copy for one path pair per
// run. It holds no state between runs beyond the in-flight pair set.
type Orchestrator struct {
	scanner   *Scanner
	tolerance time.Duration
	parallel  int
	recorder  Recorder

	mu       sync.Mutex
	inflight map[string]Phase
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 2 * time.Second
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 4
	}

	return &Orchestrator{
		scanner:   NewScanner(opts.IgnoreList),
		tolerance: opts.Tolerance,
		parallel:  opts.Parallel,
		recorder:  opts.Recorder,
		inflight:  make(map[string]Phase),
	}
}

// Run reconciles one local/mirror pair. Concurrent runs on distinct pairs
// are independent; a second run on the same pair fails with
// ErrSyncInProgress. Cancellation is honored between file copies; a copy
// already started runs to completion.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	policy, ok := ParsePolicy(string(req.Policy))
	if !ok {
		return Result{}, fmt.Errorf("unknown policy: %s", req.Policy)
	}

	localRoot, err := filepath.Abs(req.LocalPath)
	if err != nil {
		return Result{}, fmt.Errorf("invalid local path: %w", err)
	}
	mirrorRoot, err := filepath.Abs(req.MirrorPath)
	if err != nil {
		return Result{}, fmt.Errorf("invalid mirror path: %w", err)
	}

	key := pairKey(localRoot, mirrorRoot)
	if !o.acquire(key) {
		return Result{}, ErrSyncInProgress
	}
	defer o.release(key)

	started := time.Now()
	result, err := o.run(ctx, key, localRoot, mirrorRoot, policy)

	if o.recorder != nil {
		record := RunRecord{
			LocalPath:   localRoot,
			MirrorPath:  mirrorRoot,
			Policy:      policy,
			FilesSynced: result.FilesSynced,
			Conflicts:   len(result.Conflicts),
			Failed:      len(result.SoftErrors),
			Success:     result.Success,
			Duration:    time.Since(started),
			FinishedAt:  time.Now(),
		}
		if err != nil {
			record.ErrMsg = err.Error()
		}
		o.recorder.Record(record)
	}

	return result, err
}

func (o *Orchestrator) run(ctx context.Context, key, localRoot, mirrorRoot string, policy Policy) (Result, error) {
	if err := checkRoots(localRoot, mirrorRoot); err != nil {
		o.setPhase(key, PhaseFailed)
		return Result{Success: false}, err
	}

	o.setPhase(key, PhaseScanning)

	var (
		localInv, mirrorInv   Inventory
		localSoft, mirrorSoft []string
	)

	g, scanCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		localInv, localSoft, err = o.scanner.Scan(scanCtx, localRoot)
		return err
	})
	g.Go(func() error {
		var err error
		mirrorInv, mirrorSoft, err = o.scanner.Scan(scanCtx, mirrorRoot)
		return err
	})
	if err := g.Wait(); err != nil {
		o.setPhase(key, PhaseFailed)
		return Result{Success: false}, fmt.Errorf("scan failed: %w", err)
	}

	o.setPhase(key, PhaseDiffing)

	actions := Diff(localInv, mirrorInv, o.tolerance)
	resolved, conflicts := NewResolver(policy).Resolve(actions, localRoot, mirrorRoot)
	soft := append(localSoft, mirrorSoft...)

	if len(conflicts) > 0 {
		// Conservative variant: while any conflict is unresolved, nothing
		// from this diff is copied, so a half-applied sync can never mask
		// divergence on the same path set.
		o.setPhase(key, PhaseConflictsPending)
		logger.Log.Warn("sync halted on conflicts",
			zap.String("local", localRoot),
			zap.String("mirror", mirrorRoot),
			zap.Int("conflicts", len(conflicts)))

		return Result{Success: true, Conflicts: conflicts, SoftErrors: soft}, nil
	}

	o.setPhase(key, PhaseCopying)

	copied, copyErrs, err := o.execute(ctx, resolved, localRoot, mirrorRoot)
	soft = append(soft, copyErrs...)
	if err != nil {
		o.setPhase(key, PhaseFailed)
		return Result{Success: false, FilesSynced: copied, SoftErrors: soft}, err
	}

	o.setPhase(key, PhaseCompleted)
	logger.Log.Info("sync completed",
		zap.String("local", localRoot),
		zap.String("mirror", mirrorRoot),
		zap.Int("files_synced", copied),
		zap.Int("soft_errors", len(soft)))

	return Result{Success: true, FilesSynced: copied, SoftErrors: soft}, nil
}

// execute runs the copy actions on a bounded worker pool. Per-file failures
// are collected, never fatal; the returned error is reserved for conditions
// that prevent any progress at all.
func (o *Orchestrator) execute(ctx context.Context, actions []Action, localRoot, mirrorRoot string) (int, []string, error) {
	needLocal, needMirror := false, false
	for _, action := range actions {
		switch action.Type {
		case ActionCopyToLocal:
			needLocal = true
		case ActionCopyToMirror:
			needMirror = true
		}
	}

	if needMirror {
		if err := os.MkdirAll(mirrorRoot, 0755); err != nil {
			return 0, nil, fmt.Errorf("failed to create mirror root: %w", err)
		}
	}
	if needLocal {
		if err := os.MkdirAll(localRoot, 0755); err != nil {
			return 0, nil, fmt.Errorf("failed to create local root: %w", err)
		}
	}

	var (
		copied   atomic.Int64
		errMu    sync.Mutex
		copyErrs []string
	)

	var g errgroup.Group
	g.SetLimit(o.parallel)

	for _, action := range actions {
		if ctx.Err() != nil {
			break
		}

		var src, dst string
		switch action.Type {
		case ActionCopyToMirror:
			src = filepath.Join(localRoot, filepath.FromSlash(action.RelPath))
			dst = filepath.Join(mirrorRoot, filepath.FromSlash(action.RelPath))
		case ActionCopyToLocal:
			src = filepath.Join(mirrorRoot, filepath.FromSlash(action.RelPath))
			dst = filepath.Join(localRoot, filepath.FromSlash(action.RelPath))
		default:
			continue
		}

		relPath := action.RelPath
		g.Go(func() error {
			if err := CopyFile(src, dst); err != nil {
				logger.Log.Error("copy failed",
					zap.String("path", relPath),
					zap.Error(err))

				errMu.Lock()
				copyErrs = append(copyErrs, fmt.Sprintf("%s: %v", relPath, err))
				errMu.Unlock()
				return nil
			}

			copied.Add(1)
			logger.Log.Debug("copied",
				zap.String("src", src),
				zap.String("dst", dst))
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return int(copied.Load()), copyErrs, err
	}

	return int(copied.Load()), copyErrs, nil
}

// ResolveConflict applies one conflict decision as a single direct copy,
// without re-running the full diff.
func (o *Orchestrator) ResolveConflict(localPath, mirrorPath string, useLocal bool) error {
	if useLocal {
		return CopyFile(localPath, mirrorPath)
	}

	return CopyFile(mirrorPath, localPath)
}

// Phase reports the observable state of the run for a pair, or PhaseIdle
// when nothing is in flight.
func (o *Orchestrator) Phase(localPath, mirrorPath string) Phase {
	localRoot, err := filepath.Abs(localPath)
	if err != nil {
		return PhaseIdle
	}
	mirrorRoot, err := filepath.Abs(mirrorPath)
	if err != nil {
		return PhaseIdle
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if phase, ok := o.inflight[pairKey(localRoot, mirrorRoot)]; ok {
		return phase
	}

	return PhaseIdle
}

// checkRoots rejects the structural failure states: a root that exists but
// is not a directory, or neither root existing at all. A single missing
// root is a normal first-run state.
func checkRoots(localRoot, mirrorRoot string) error {
	localDir, localExists, err := statDir(localRoot)
	if err != nil {
		return err
	}
	mirrorDir, mirrorExists, err := statDir(mirrorRoot)
	if err != nil {
		return err
	}

	if localExists && !localDir {
		return fmt.Errorf("local path %s is not a directory", localRoot)
	}
	if mirrorExists && !mirrorDir {
		return fmt.Errorf("mirror path %s is not a directory", mirrorRoot)
	}
	if !localExists && !mirrorExists {
		return fmt.Errorf("neither %s nor %s exists", localRoot, mirrorRoot)
	}

	return nil
}

func statDir(path string) (isDir, exists bool, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info.IsDir(), true, nil
}

func pairKey(localRoot, mirrorRoot string) string {
	return localRoot + "\x00" + mirrorRoot
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.inflight[key]; exists {
		return false
	}

	o.inflight[key] = PhaseIdle
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, key)
}

func (o *Orchestrator) setPhase(key string, phase Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight[key] = phase
}
