package syncer

import (
	"memcard/internal/logger"
	"path/filepath"

	"go.uber.org/zap"
)

// Resolver applies a conflict policy to a diffed action list.
type Resolver struct {
	policy Policy
}

func NewResolver(policy Policy) *Resolver {
	if policy == "" {
		policy = PolicyManual
	}

	return &Resolver{policy: policy}
}

func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve rewrites conflict actions according to the policy. Under MANUAL
// the conflicts are returned untouched for the caller to decide; under the
// prefer-* policies every conflict becomes a copy action and the returned
// conflict list is empty.
func (r *Resolver) Resolve(actions []Action, localRoot, mirrorRoot string) ([]Action, []Conflict) {
	var conflicts []Conflict

	resolved := make([]Action, 0, len(actions))
	for _, action := range actions {
		if action.Type != ActionConflict {
			resolved = append(resolved, action)
			continue
		}

		logger.Log.Warn("conflict detected",
			zap.String("path", action.RelPath),
			zap.String("policy", string(r.policy)),
			zap.Time("local_mod", action.Local.ModTime),
			zap.Time("mirror_mod", action.Mirror.ModTime))

		switch r.policy {
		case PolicyPreferLocal:
			action.Type = ActionCopyToMirror

		case PolicyPreferMirror:
			action.Type = ActionCopyToLocal

		case PolicyPreferNewer:
			// Ties go to local, matching the diff engine's ordering.
			if action.Mirror.ModTime.After(action.Local.ModTime) {
				action.Type = ActionCopyToLocal
			} else {
				action.Type = ActionCopyToMirror
			}

		default:
			conflicts = append(conflicts, conflictFromAction(action, localRoot, mirrorRoot))
		}

		resolved = append(resolved, action)
	}

	return resolved, conflicts
}

func conflictFromAction(action Action, localRoot, mirrorRoot string) Conflict {
	return Conflict{
		RelPath:        action.RelPath,
		LocalPath:      filepath.Join(localRoot, filepath.FromSlash(action.RelPath)),
		MirrorPath:     filepath.Join(mirrorRoot, filepath.FromSlash(action.RelPath)),
		LocalModified:  action.Local.ModTime,
		MirrorModified: action.Mirror.ModTime,
		LocalSize:      action.Local.Size,
		MirrorSize:     action.Mirror.Size,
	}
}
