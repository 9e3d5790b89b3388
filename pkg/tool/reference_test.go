package tool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/sandbox"
	"github.com/orinrun/orin/pkg/tool"
)

func execute(t *testing.T, tl *tool.Tool, in component.Input) component.Output {
	t.Helper()
	ctx := &component.ExecutionContext{Context: context.Background()}
	out, err := tl.Execute(ctx, in)
	require.NoError(t, err)
	return out
}

func TestEcho_RegistersWithoutSandbox(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.RegisterTool("echo", tool.NewEcho()))

	out := execute(t, tool.NewEcho(), component.Input{Named: map[string]any{"text": "hi"}})
	assert.Equal(t, "hi", out.Text)
}

func TestReadWriteFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := sandbox.NewFileSandbox([]string{dir}, sandbox.DefaultLimits())
	require.NoError(t, err)

	reg := registry.New(nil)
	writer := tool.NewWriteFile(tool.WriteFileConfig{FileSandbox: fs})
	reader := tool.NewReadFile(tool.ReadFileConfig{FileSandbox: fs})
	require.NoError(t, reg.RegisterTool("write_file", writer))
	require.NoError(t, reg.RegisterTool("read_file", reader))

	_ = execute(t, writer, component.Input{Named: map[string]any{
		"path":    "note.txt",
		"content": "hello orin",
	}})

	out := execute(t, reader, component.Input{Named: map[string]any{"path": "note.txt"}})
	assert.Equal(t, "hello orin", out.Text)

	data, err := os.ReadFile(filepath.Join(dir, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello orin", string(data))
}

func TestReadFile_RejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	fs, err := sandbox.NewFileSandbox([]string{dir}, sandbox.DefaultLimits())
	require.NoError(t, err)

	reader := tool.NewReadFile(tool.ReadFileConfig{FileSandbox: fs})
	ctx := &component.ExecutionContext{Context: context.Background()}
	_, err = reader.Execute(ctx, component.Input{Named: map[string]any{"path": "../outside.txt"}})
	assert.Error(t, err)
}

func TestReadFile_RequiresSandboxToRegister(t *testing.T) {
	reader := tool.New(tool.Config{
		Meta:     component.Metadata{Name: "bad_read_file"},
		Security: tool.SecurityRequirements{Privilege: tool.PrivilegeRestricted, AllowedPaths: []string{"/tmp"}},
		Execute: func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{}, nil
		},
	})

	reg := registry.New(nil)
	err := reg.RegisterTool("bad_read_file", reader)
	assert.ErrorContains(t, err, "sandbox")
}
