package syncer

import (
	"sort"
	"time"
)

// Diff merges two inventories into one Action per relative path, ordered by
// path for deterministic output.
//
// Modification-time comparison is a cheap substitute for content hashing: a
// side that is strictly newer beyond the tolerance window is authoritative.
// Files whose timestamps agree within the tolerance but whose sizes differ
// cannot be ordered (clock skew, simultaneous edits) and become conflicts.
func Diff(local, mirror Inventory, tolerance time.Duration) []Action {
	paths := make([]string, 0, len(local)+len(mirror))
	seen := make(map[string]struct{}, len(local)+len(mirror))

	for path := range local {
		paths = append(paths, path)
		seen[path] = struct{}{}
	}
	for path := range mirror {
		if _, ok := seen[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	actions := make([]Action, 0, len(paths))
	for _, path := range paths {
		localRec, hasLocal := local[path]
		mirrorRec, hasMirror := mirror[path]

		action := Action{
			RelPath:   path,
			Local:     localRec,
			Mirror:    mirrorRec,
			HasLocal:  hasLocal,
			HasMirror: hasMirror,
		}

		switch {
		case hasLocal && !hasMirror:
			action.Type = ActionCopyToMirror
		case !hasLocal && hasMirror:
			action.Type = ActionCopyToLocal
		default:
			action.Type = classify(localRec, mirrorRec, tolerance)
		}

		actions = append(actions, action)
	}

	return actions
}

func classify(local, mirror FileRecord, tolerance time.Duration) ActionType {
	delta := local.ModTime.Sub(mirror.ModTime)

	switch {
	case delta > tolerance:
		return ActionCopyToMirror
	case delta < -tolerance:
		return ActionCopyToLocal
	case local.Size == mirror.Size:
		return ActionSkip
	default:
		return ActionConflict
	}
}
