package collector

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// binarySniffLen is how much of a file is inspected for NUL bytes, the same
// heuristic git uses to call a file binary.
const binarySniffLen = 8000

// lineCounter counts lines of untracked files, skipping ignored and binary
// ones.
type lineCounter struct {
	Root           string
	IgnorePatterns []string
}

// Count returns the total number of lines across paths (relative to Root).
// Unreadable or binary files contribute zero. A pattern compile error is
// returned alongside the count of the files that were still processed.
func (lc *lineCounter) Count(paths []string) (int, error) {
	globs, err := compileIgnorePatterns(lc.IgnorePatterns)

	total := 0
	for _, p := range paths {
		if isIgnored(p, globs) {
			continue
		}
		full := filepath.FromSlash(p)
		if lc.Root != "" && !filepath.IsAbs(full) {
			full = filepath.Join(lc.Root, full)
		}
		n, cerr := countFileLines(full)
		if cerr != nil {
			continue
		}
		total += n
	}
	return total, err
}

// compileIgnorePatterns compiles gitignore-style globs with '/' as the
// separator. Invalid patterns are dropped and reported together.
func compileIgnorePatterns(patterns []string) ([]glob.Glob, error) {
	var (
		globs []glob.Glob
		errs  []error
	)
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			errs = append(errs, err)
			continue
		}
		globs = append(globs, g)
	}
	return globs, errors.Join(errs...)
}

// isIgnored reports whether the slash-separated path, or its base name,
// matches any of the globs.
func isIgnored(path string, globs []glob.Glob) bool {
	rel := filepath.ToSlash(path)
	base := filepath.Base(rel)
	for _, g := range globs {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// countFileLines counts lines the way a line iterator would: a final line
// without a trailing newline still counts. Binary files count as zero.
func countFileLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	head, err := r.Peek(binarySniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return 0, nil
	}

	var (
		lines int
		read  bool
		last  byte
		buf   = make([]byte, 32*1024)
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
			read = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if read && last != '\n' {
		lines++
	}
	return lines, nil
}
