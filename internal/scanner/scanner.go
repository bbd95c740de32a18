// Package scanner discovers serialized code-object files under a directory
// tree. It respects .ccmignore files with gitignore-style patterns and skips
// hidden files and common build directories.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes one discovered code-object file.
type FileInfo struct {
	Path     string // relative path from the scan root
	FullPath string // absolute path
	Format   string // "json" or "msgpack", from the extension
	Size     int64
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden     bool     // skip files and directories starting with "."
	Extensions     []string // code-object extensions to pick up
	Excludes       []string // directory names to skip
	IgnoreFileName string   // per-directory ignore file (default .ccmignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		Extensions:     []string{".json", ".msgpack", ".ccmo"},
		IgnoreFileName: ".ccmignore",
		Excludes: []string{
			"node_modules",
			"__pycache__",
			"dist",
			"build",
			"vendor",
			"target",
		},
	}
}

// Scanner walks a directory tree collecting code-object files.
type Scanner struct {
	opts Options
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans root and returns the discovered code-object files
// in walk order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}

	patterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isExcluded(info.Name()) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil {
				patterns = append(patterns, nested...)
			}
			return nil
		}

		if matchesIgnorePatterns(relSlash, patterns) {
			return nil
		}

		format, ok := s.formatFor(path)
		if !ok {
			return nil
		}

		files = append(files, FileInfo{
			Path:     relSlash,
			FullPath: path,
			Format:   format,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// formatFor maps a recognized extension to its serialization format.
func (s *Scanner) formatFor(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.opts.Extensions {
		if ext == want {
			if ext == ".json" {
				return "json", true
			}
			return "msgpack", true
		}
	}
	return "", false
}

func (s *Scanner) isExcluded(name string) bool {
	for _, exclude := range s.opts.Excludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Scan scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
