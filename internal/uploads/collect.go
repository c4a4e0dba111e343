package uploads

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// File is a local PDF selected for upload.
type File struct {
	Path     string // Absolute path on disk.
	RelPath  string // Path relative to the argument it was found under.
	Size     int64
	Checksum string // SHA-256 hex digest of the content.
	Title    string // Document title sent to the API.
}

// Collect expands args into the PDFs to upload. Each arg is a file, a
// directory (searched recursively) or a doublestar glob such as
// "reports/**/*.pdf". Paths matching any exclude pattern are dropped.
// Results are sorted by path with duplicates removed.
func Collect(args, excludes []string) ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	add := func(path, rel string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("uploads: resolve %s: %w", path, err)
		}
		if seen[abs] || !isPDF(abs) || matchesAny(rel, excludes) {
			return nil
		}
		f, err := describe(abs, rel)
		if err != nil {
			return err
		}
		seen[abs] = true
		files = append(files, f)
		return nil
	}

	for _, arg := range args {
		if hasMeta(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("uploads: bad pattern %q: %w", arg, err)
			}
			base, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
			for _, m := range matches {
				rel, err := filepath.Rel(filepath.FromSlash(base), m)
				if err != nil {
					rel = m
				}
				if err := add(m, filepath.ToSlash(rel)); err != nil {
					return nil, err
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("uploads: %w", err)
		}
		if !info.IsDir() {
			if !isPDF(arg) {
				return nil, fmt.Errorf("uploads: %s: %w", arg, api.ErrNotPDF)
			}
			if err := add(arg, filepath.Base(arg)); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// Skip entries we cannot read instead of aborting.
				return nil
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && matchesAny(rel, excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return add(path, rel)
		})
		if err != nil {
			return nil, fmt.Errorf("uploads: walking %s: %w", arg, err)
		}
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

func describe(path, rel string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("uploads: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return File{}, fmt.Errorf("uploads: hashing %s: %w", path, err)
	}
	return File{
		Path:     path,
		RelPath:  rel,
		Size:     n,
		Checksum: hex.EncodeToString(h.Sum(nil)),
		Title:    api.TitleFromFilename(filepath.Base(path)),
	}, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func hasMeta(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// matchesAny reports whether rel, one of its parent directories, or one
// of its path segments matches a pattern.
func matchesAny(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	parts := strings.Split(strings.Trim(filepath.ToSlash(rel), "/"), "/")
	for i, part := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		for _, p := range patterns {
			p = filepath.ToSlash(p)
			if ok, err := doublestar.Match(p, prefix); err == nil && ok {
				return true
			}
			if ok, err := doublestar.Match(p, part); err == nil && ok {
				return true
			}
		}
	}
	return false
}
