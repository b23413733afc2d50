package syncer

import (
	"context"
	"fmt"
	"io/fs"
	"memcard/internal/logger"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Scanner walks a root path and produces an Inventory of every regular file
// under it. Scanning is read-only.
type Scanner struct {
	ignoreList []string
}

func NewScanner(ignoreList []string) *Scanner {
	return &Scanner{ignoreList: ignoreList}
}

// Scan inventories root. A missing root yields an empty Inventory: a save
// folder the game has not created yet is a normal first-run state, not a
// fault. A root that exists but is not a directory is an error. Unreadable
// subdirectories and files that vanish mid-walk are returned as soft
// failures without aborting the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (Inventory, []string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid root path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if os.IsNotExist(err) {
		return Inventory{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	inv := Inventory{}
	var soft []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			soft = append(soft, fmt.Sprintf("%s: %v", path, err))
			logger.Log.Debug("skipping unreadable entry",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		if shouldIgnore(path, s.ignoreList) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			soft = append(soft, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			soft = append(soft, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		rel = filepath.ToSlash(rel)
		inv[rel] = FileRecord{
			RelPath: rel,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}

		return nil
	})
	if err != nil {
		return nil, soft, err
	}

	return inv, soft, nil
}

func shouldIgnore(path string, ignoreList []string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		for _, pattern := range ignoreList {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}
