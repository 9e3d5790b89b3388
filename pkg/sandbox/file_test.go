package sandbox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/sandbox"
)

func TestFileSandbox_ResolveWithinRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("hi"), 0o644))

	sb, err := sandbox.NewFileSandbox([]string{dir}, sandbox.DefaultLimits())
	require.NoError(t, err)

	resolved, err := sb.Resolve(filepath.Join(dir, "ok.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ok.txt"), resolved)
}

func TestFileSandbox_BlocksDotDotEscape(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))

	sb, err := sandbox.NewFileSandbox([]string{work}, sandbox.DefaultLimits())
	require.NoError(t, err)

	_, err = sb.Resolve(filepath.Join(work, "../etc/passwd"))
	require.Error(t, err)
	assert.Equal(t, orierr.KindSecurity, orierr.KindOf(err))
}

func TestFileSandbox_BlocksSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(work, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(work, "link.txt")))

	sb, err := sandbox.NewFileSandbox([]string{work}, sandbox.DefaultLimits())
	require.NoError(t, err)

	_, err = sb.Resolve(filepath.Join(work, "link.txt"))
	require.Error(t, err)
	assert.Equal(t, orierr.KindSecurity, orierr.KindOf(err))
}

func TestFileSandbox_BlocksIntermediateSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(work, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "passwd"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(work, "dirlink")))

	sb, err := sandbox.NewFileSandbox([]string{work}, sandbox.DefaultLimits())
	require.NoError(t, err)

	_, err = sb.Resolve(filepath.Join(work, "dirlink", "passwd"))
	require.Error(t, err)
	assert.Equal(t, orierr.KindSecurity, orierr.KindOf(err))
}

func TestFileSandbox_CheckFileSize(t *testing.T) {
	sb, err := sandbox.NewFileSandbox([]string{t.TempDir()}, sandbox.Limits{MaxFileSizeBytes: 100})
	require.NoError(t, err)

	assert.NoError(t, sb.CheckFileSize(100))
	assert.Error(t, sb.CheckFileSize(101))
}
