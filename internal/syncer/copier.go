package syncer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const tmpSuffix = ".memcard.tmp"

// CopyFile copies src to dst, creating missing parent directories and
// preserving the source's mode and modification time. Content is written to
// a temp file in the destination directory and renamed into place, so a
// concurrent reader of dst sees either the old content or the new content,
// never a torn write. On failure the temp file is removed and any existing
// dst is left untouched.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open src: %w", err)
	}

	defer func(srcFile *os.File) {
		_ = srcFile.Close()
	}(srcFile)

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat src: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}

	tmpPath := dst + tmpSuffix
	dstFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to open dst: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to copy: %w", err)
	}

	if err := dstFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close dst: %w", err)
	}

	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set mtime: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename tmp: %w", err)
	}

	return nil
}
