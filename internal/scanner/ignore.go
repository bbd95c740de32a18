package scanner

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ignorePattern is one gitignore-style pattern. Supported forms: plain names
// matched at any depth, "/"-anchored patterns matched from the root,
// trailing-"/" directory patterns, "*"/"?" globs per segment, "**" spanning
// segments, and "!" negation.
type ignorePattern struct {
	segments []string
	negation bool
	dirOnly  bool
	anchored bool
}

func parseIgnorePattern(raw string) ignorePattern {
	p := ignorePattern{}
	if strings.HasPrefix(raw, "!") {
		p.negation = true
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "/") {
		p.dirOnly = true
		raw = strings.TrimSuffix(raw, "/")
	}
	if strings.HasPrefix(raw, "/") {
		p.anchored = true
		raw = raw[1:]
	}
	p.segments = strings.Split(raw, "/")
	return p
}

// match reports whether relPath (slash-separated) matches the pattern. A
// directory pattern matches the directory itself and everything below it.
func (p ignorePattern) match(relPath string) bool {
	pathSegs := strings.Split(relPath, "/")

	if p.anchored {
		return p.matchAt(pathSegs)
	}
	for start := 0; start < len(pathSegs); start++ {
		if p.matchAt(pathSegs[start:]) {
			return true
		}
	}
	return false
}

// matchAt matches the pattern segments against the head of pathSegs.
func (p ignorePattern) matchAt(pathSegs []string) bool {
	return matchSegments(p.segments, pathSegs, p.dirOnly)
}

func matchSegments(patSegs, pathSegs []string, prefixOK bool) bool {
	if len(patSegs) == 0 {
		// Full pattern consumed: a directory pattern accepts any remainder.
		return prefixOK || len(pathSegs) == 0
	}
	if patSegs[0] == "**" {
		for i := 0; i <= len(pathSegs); i++ {
			if matchSegments(patSegs[1:], pathSegs[i:], prefixOK) {
				return true
			}
		}
		return false
	}
	if len(pathSegs) == 0 {
		return false
	}
	if ok, err := path.Match(patSegs[0], pathSegs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(patSegs[1:], pathSegs[1:], prefixOK)
}

// loadIgnorePatterns reads the ignore file in dir, if any.
func (s *Scanner) loadIgnorePatterns(dir string) ([]ignorePattern, error) {
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []ignorePattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, parseIgnorePattern(line))
	}
	return patterns, sc.Err()
}

// matchesIgnorePatterns applies the patterns in order; later negations
// override earlier matches.
func matchesIgnorePatterns(relPath string, patterns []ignorePattern) bool {
	ignored := false
	for _, p := range patterns {
		if p.match(relPath) {
			ignored = !p.negation
		}
	}
	return ignored
}
