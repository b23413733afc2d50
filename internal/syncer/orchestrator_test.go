package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	records []RunRecord
}

func (r *captureRecorder) Record(record RunRecord) {
	r.records = append(r.records, record)
}

func newTestOrchestrator(recorder Recorder) *Orchestrator {
	return NewOrchestrator(Options{
		Tolerance: 2 * time.Second,
		Parallel:  2,
		Recorder:  recorder,
	})
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestRunPropagatesLocalOnlyFile(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	mtime := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(local, "slot1", "save.dat"), "fresh save")
	touch(t, filepath.Join(local, "slot1", "save.dat"), mtime)

	orch := newTestOrchestrator(nil)
	result, err := orch.Run(context.Background(), Request{LocalPath: local, MirrorPath: mirror})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesSynced)
	assert.Empty(t, result.Conflicts)

	copied := filepath.Join(mirror, "slot1", "save.dat")
	got, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "fresh save", string(got))

	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestRunIsIdempotent(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(local, "a.sav"), "a")
	writeFile(t, filepath.Join(mirror, "b.sav"), "b")

	orch := newTestOrchestrator(nil)
	ctx := context.Background()
	req := Request{LocalPath: local, MirrorPath: mirror}

	first, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.FilesSynced)

	second, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.FilesSynced)
}

func TestRunManualConflictHoldsBackAllCopies(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	mtime := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	// Same mtime, different size: an undecidable divergence.
	writeFile(t, filepath.Join(local, "save.dat"), "local version")
	writeFile(t, filepath.Join(mirror, "save.dat"), "mirror")
	touch(t, filepath.Join(local, "save.dat"), mtime)
	touch(t, filepath.Join(mirror, "save.dat"), mtime)

	// A clean new file that would otherwise copy.
	writeFile(t, filepath.Join(local, "other.sav"), "other")

	orch := newTestOrchestrator(nil)
	result, err := orch.Run(context.Background(), Request{
		LocalPath: local, MirrorPath: mirror, Policy: PolicyManual,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.FilesSynced)
	require.Len(t, result.Conflicts, 1)

	c := result.Conflicts[0]
	assert.Equal(t, "save.dat", c.RelPath)
	assert.Equal(t, int64(13), c.LocalSize)
	assert.Equal(t, int64(6), c.MirrorSize)

	// Neither side was overwritten and the clean file was held back too.
	localGot, err := os.ReadFile(filepath.Join(local, "save.dat"))
	require.NoError(t, err)
	assert.Equal(t, "local version", string(localGot))

	mirrorGot, err := os.ReadFile(filepath.Join(mirror, "save.dat"))
	require.NoError(t, err)
	assert.Equal(t, "mirror", string(mirrorGot))

	assert.NoFileExists(t, filepath.Join(mirror, "other.sav"))
}

func TestRunPreferNewerResolvesConflict(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	mtime := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(local, "save.dat"), "local version")
	writeFile(t, filepath.Join(mirror, "save.dat"), "mirror")
	touch(t, filepath.Join(local, "save.dat"), mtime)
	touch(t, filepath.Join(mirror, "save.dat"), mtime.Add(time.Second))

	orch := newTestOrchestrator(nil)
	result, err := orch.Run(context.Background(), Request{
		LocalPath: local, MirrorPath: mirror, Policy: PolicyPreferNewer,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesSynced)
	assert.Empty(t, result.Conflicts)

	got, err := os.ReadFile(filepath.Join(local, "save.dat"))
	require.NoError(t, err)
	assert.Equal(t, "mirror", string(got), "the one-second-newer mirror side wins")
}

func TestRunRoleSwapConverges(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(a, "only-a.sav"), "alpha")
	touch(t, filepath.Join(a, "only-a.sav"), base)
	writeFile(t, filepath.Join(b, "only-b.sav"), "beta")
	touch(t, filepath.Join(b, "only-b.sav"), base)
	writeFile(t, filepath.Join(a, "shared.dat"), "rewritten on a")
	writeFile(t, filepath.Join(b, "shared.dat"), "stale")
	touch(t, filepath.Join(a, "shared.dat"), base.Add(10*time.Second))
	touch(t, filepath.Join(b, "shared.dat"), base)

	orch := newTestOrchestrator(nil)
	ctx := context.Background()

	first, err := orch.Run(ctx, Request{LocalPath: a, MirrorPath: b, Policy: PolicyPreferNewer})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 3, first.FilesSynced)

	// Re-running with the roles swapped finds nothing left to do.
	swapped, err := orch.Run(ctx, Request{LocalPath: b, MirrorPath: a, Policy: PolicyPreferNewer})
	require.NoError(t, err)
	assert.True(t, swapped.Success)
	assert.Equal(t, 0, swapped.FilesSynced)
	assert.Empty(t, swapped.Conflicts)

	assertTreesEqual(t, a, b)
}

func assertTreesEqual(t *testing.T, left, right string) {
	t.Helper()

	leftInv, _, err := NewScanner(nil).Scan(context.Background(), left)
	require.NoError(t, err)
	rightInv, _, err := NewScanner(nil).Scan(context.Background(), right)
	require.NoError(t, err)

	require.Equal(t, len(leftInv), len(rightInv))
	for rel, lrec := range leftInv {
		rrec, ok := rightInv[rel]
		require.True(t, ok, rel)
		assert.Equal(t, lrec.Size, rrec.Size, rel)
		assert.True(t, lrec.ModTime.Equal(rrec.ModTime), rel)

		lb, err := os.ReadFile(filepath.Join(left, filepath.FromSlash(rel)))
		require.NoError(t, err)
		rb, err := os.ReadFile(filepath.Join(right, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, string(lb), string(rb), rel)
	}
}

func TestRunCreatesMissingMirrorRoot(t *testing.T) {
	local := t.TempDir()
	mirror := filepath.Join(t.TempDir(), "mirror", "game")
	writeFile(t, filepath.Join(local, "save.dat"), "data")

	orch := newTestOrchestrator(nil)
	result, err := orch.Run(context.Background(), Request{LocalPath: local, MirrorPath: mirror})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesSynced)
	assert.FileExists(t, filepath.Join(mirror, "save.dat"))
}

func TestRunStructuralFailures(t *testing.T) {
	t.Run("both roots missing", func(t *testing.T) {
		dir := t.TempDir()
		orch := newTestOrchestrator(nil)

		result, err := orch.Run(context.Background(), Request{
			LocalPath:  filepath.Join(dir, "nope-local"),
			MirrorPath: filepath.Join(dir, "nope-mirror"),
		})
		require.Error(t, err)
		assert.False(t, result.Success)
	})

	t.Run("local root is a file", func(t *testing.T) {
		dir := t.TempDir()
		local := filepath.Join(dir, "local")
		writeFile(t, local, "not a dir")

		orch := newTestOrchestrator(nil)
		result, err := orch.Run(context.Background(), Request{
			LocalPath: local, MirrorPath: t.TempDir(),
		})
		require.ErrorContains(t, err, "not a directory")
		assert.False(t, result.Success)
	})
}

func TestRunRejectsUnknownPolicy(t *testing.T) {
	orch := newTestOrchestrator(nil)
	_, err := orch.Run(context.Background(), Request{
		LocalPath: t.TempDir(), MirrorPath: t.TempDir(), Policy: "NEWEST",
	})
	assert.ErrorContains(t, err, "unknown policy")
}

func TestRunPairExclusivity(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	orch := newTestOrchestrator(nil)

	localRoot, err := filepath.Abs(local)
	require.NoError(t, err)
	mirrorRoot, err := filepath.Abs(mirror)
	require.NoError(t, err)

	key := pairKey(localRoot, mirrorRoot)
	require.True(t, orch.acquire(key))
	defer orch.release(key)

	_, err = orch.Run(context.Background(), Request{LocalPath: local, MirrorPath: mirror})
	assert.ErrorIs(t, err, ErrSyncInProgress)

	// A distinct pair is unaffected.
	_, err = orch.Run(context.Background(), Request{LocalPath: t.TempDir(), MirrorPath: t.TempDir()})
	assert.NoError(t, err)
}

func TestPhaseIdleWhenNotRunning(t *testing.T) {
	orch := newTestOrchestrator(nil)
	assert.Equal(t, PhaseIdle, orch.Phase("/some/local", "/some/mirror"))
}

func TestResolveConflictCopiesChosenSide(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.dat")
	mirror := filepath.Join(dir, "mirror.dat")
	writeFile(t, local, "local version")
	writeFile(t, mirror, "mirror version")

	orch := newTestOrchestrator(nil)

	require.NoError(t, orch.ResolveConflict(local, mirror, true))
	got, err := os.ReadFile(mirror)
	require.NoError(t, err)
	assert.Equal(t, "local version", string(got))

	writeFile(t, mirror, "mirror again")
	require.NoError(t, orch.ResolveConflict(local, mirror, false))
	got, err = os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "mirror again", string(got))
}

func TestRunInvokesRecorder(t *testing.T) {
	local, mirror := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(local, "save.dat"), "data")

	recorder := &captureRecorder{}
	orch := newTestOrchestrator(recorder)

	_, err := orch.Run(context.Background(), Request{
		LocalPath: local, MirrorPath: mirror, Policy: PolicyPreferLocal,
	})
	require.NoError(t, err)

	require.Len(t, recorder.records, 1)
	rec := recorder.records[0]
	assert.True(t, rec.Success)
	assert.Equal(t, 1, rec.FilesSynced)
	assert.Equal(t, PolicyPreferLocal, rec.Policy)
	assert.Empty(t, rec.ErrMsg)
	assert.WithinDuration(t, time.Now(), rec.FinishedAt, time.Minute)
}
