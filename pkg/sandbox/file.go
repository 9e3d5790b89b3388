// Package sandbox implements the mandatory file/network/process
// restriction objects every I/O-capable tool is constructed with
// (spec.md section 4.3). Path canonicalization and the allowed-root
// containment check generalize the inline checks the teacher repeats in
// every file tool (pkg/tools/file_writer.go, pkg/tools/read_file.go:
// filepath.Clean + filepath.Abs + strings.HasPrefix against a working
// directory) into one reusable FileSandbox shared by every tool.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/orinrun/orin/internal/orierr"
)

// Limits bounds the resources a sandboxed operation may consume
// (spec.md's resource_limits).
type Limits struct {
	MaxExecutionTimeMS  int64
	MaxMemoryBytes      int64
	MaxFileSizeBytes    int64
	MaxOpenFiles        int
	MaxConcurrentConns  int
}

// DefaultLimits mirrors the teacher's tool defaults (1MB writes, 10MB
// reads) collapsed to one conservative number tools can narrow.
func DefaultLimits() Limits {
	return Limits{
		MaxExecutionTimeMS: 30_000,
		MaxMemoryBytes:     256 * 1024 * 1024,
		MaxFileSizeBytes:   10 * 1024 * 1024,
		MaxOpenFiles:       64,
		MaxConcurrentConns: 16,
	}
}

// FileSandbox restricts filesystem access to a set of allowed root
// directories. Every path a tool touches must first go through Resolve.
type FileSandbox struct {
	roots  []string
	limits Limits
}

// NewFileSandbox builds a sandbox rooted at the given absolute
// directories. Relative roots are resolved against the working
// directory, matching the teacher's WorkingDirectory convention.
func NewFileSandbox(roots []string, limits Limits) (*FileSandbox, error) {
	if len(roots) == 0 {
		return nil, orierr.New(orierr.KindValidation, "sandbox", "at least one allowed root is required")
	}
	resolved := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, orierr.Wrap(orierr.KindValidation, "sandbox", err)
		}
		resolved = append(resolved, filepath.Clean(abs))
	}
	return &FileSandbox{roots: resolved, limits: limits}, nil
}

// Roots returns the sandbox's allowed root directories.
func (s *FileSandbox) Roots() []string { return append([]string(nil), s.roots...) }

// Limits returns the sandbox's resource limits.
func (s *FileSandbox) Limits() Limits { return s.limits }

// Resolve canonicalizes path (cleans it, makes it absolute, resolves
// symlinks in bounded steps) and verifies the result is a descendant of
// one of the sandbox's allowed roots. This is the single choke point
// spec.md's invariant 5 describes: "Path canonicalization never returns
// a path outside the union of declared allowed roots".
func (s *FileSandbox) Resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)

	var abs string
	if filepath.IsAbs(cleaned) {
		abs = cleaned
	} else {
		// Try each root in order; the first root under which the path
		// exists (or, if none exist yet, the first root) wins, matching
		// the teacher's single-working-directory join but generalized to
		// multiple roots.
		abs = filepath.Join(s.roots[0], cleaned)
		for _, root := range s.roots {
			candidate := filepath.Join(root, cleaned)
			if _, err := os.Lstat(candidate); err == nil {
				abs = candidate
				break
			}
		}
	}

	if !s.withinRoots(abs) {
		return "", orierr.Wrap(orierr.KindSecurity, "sandbox", orierr.ErrPathEscape)
	}

	resolved, err := resolveSymlinksBounded(abs, 16)
	if err != nil {
		return "", orierr.Wrap(orierr.KindSecurity, "sandbox", err)
	}
	if !s.withinRoots(resolved) {
		return "", orierr.Wrap(orierr.KindSecurity, "sandbox", orierr.ErrSymlinkEscape)
	}
	return resolved, nil
}

func (s *FileSandbox) withinRoots(abs string) bool {
	for _, root := range s.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// resolveSymlinksBounded walks path component by component from the
// root, resolving a symlink the instant one is found on ANY component —
// not just the final one — and restarting the walk from the symlink's
// target with the remaining components appended. This is what catches
// an intermediate symlinked directory (e.g. root/dirlink -> /etc,
// path root/dirlink/passwd): checking only the fully-joined candidate
// path's final component, as a naive walk does, never notices that an
// earlier component was itself a symlink pointing outside the roots.
// Refuses to follow more than maxSteps links total across the whole
// walk (spec.md: "Symlinks are resolved in bounded steps").
func resolveSymlinksBounded(path string, maxSteps int) (string, error) {
	sep := string(filepath.Separator)
	pending := strings.Split(strings.TrimPrefix(filepath.Clean(path), sep), sep)
	resolved := sep
	steps := 0

	for len(pending) > 0 {
		comp := pending[0]
		pending = pending[1:]
		if comp == "" {
			continue
		}
		candidate := filepath.Join(resolved, comp)

		info, err := os.Lstat(candidate)
		if err != nil {
			// Component doesn't exist yet, e.g. a file about to be
			// created — nothing further to resolve for it or anything
			// below it.
			resolved = candidate
			continue
		}
		if info.Mode()&os.ModeSymlink == 0 {
			resolved = candidate
			continue
		}

		steps++
		if steps > maxSteps {
			return "", orierr.New(orierr.KindSecurity, "sandbox", "too many symlink indirections")
		}
		target, err := os.Readlink(candidate)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(resolved, target)
		}
		target = filepath.Clean(target)

		rest := strings.Split(strings.TrimPrefix(target, sep), sep)
		pending = append(rest, pending...)
		resolved = sep
	}
	return resolved, nil
}

// CheckFileSize validates a prospective write/read size against the
// sandbox's MaxFileSizeBytes limit before any I/O happens (spec.md
// invariant: "File operations validate size ... before reading/writing").
func (s *FileSandbox) CheckFileSize(size int64) error {
	if s.limits.MaxFileSizeBytes > 0 && size > s.limits.MaxFileSizeBytes {
		return orierr.Wrap(orierr.KindResourceLimit, "sandbox", orierr.ErrResourceExceeded)
	}
	return nil
}
