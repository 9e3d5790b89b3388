package tool

import (
	"os"
	"strings"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/sandbox"
)

// NewEcho builds a PrivilegeSafe reference tool: it touches no
// filesystem or network state, so registry.RegisterTool accepts it
// without a sandbox. Exists to exercise the registry/schema/security
// path for a tool that genuinely needs none of sandbox's machinery —
// the minimal reference set Orin's Non-goal on concrete tool
// implementations still asks for.
func NewEcho() *Tool {
	return New(Config{
		Meta:     component.Metadata{Name: "echo", Description: "returns its input text unchanged"},
		Category: "reference",
		Schema: Schema{Parameters: []Parameter{
			{Name: "text", Type: "string", Description: "text to echo back", Required: true},
		}},
		Security: SecurityRequirements{Privilege: PrivilegeSafe},
		Execute: func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			text := in.Text
			if v, ok := in.Param("text"); ok {
				if s, ok := v.(string); ok {
					text = s
				}
			}
			return component.Output{Text: text}, nil
		},
	})
}

// ReadFileConfig bundles the sandbox a read_file reference tool is
// built with.
type ReadFileConfig struct {
	FileSandbox *sandbox.FileSandbox
	MaxBytes    int64
}

// NewReadFile builds a PrivilegeRestricted reference tool that reads a
// file through fs, the minimal I/O-capable tool the sandbox/registry
// test surface needs (spec.md's Non-goal excludes a full tool catalog
// but not this).
//
// Grounded on the teacher's pkg/tools/read_file.go: resolve path
// through the sandbox, refuse anything over the size limit, return the
// contents as text.
func NewReadFile(cfg ReadFileConfig) *Tool {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = sandbox.DefaultLimits().MaxFileSizeBytes
	}
	return New(Config{
		Meta:     component.Metadata{Name: "read_file", Description: "reads a file from an allowed root"},
		Category: "reference",
		Schema: Schema{Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "path relative to an allowed root", Required: true},
		}},
		Security: SecurityRequirements{
			Privilege:    PrivilegeRestricted,
			AllowedPaths: cfg.FileSandbox.Roots(),
		},
		FileSandbox: cfg.FileSandbox,
		Limits:      sandbox.Limits{MaxFileSizeBytes: maxBytes},
		Execute: func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			path, _ := in.Param("path")
			pathStr, _ := path.(string)
			if pathStr == "" {
				return component.Output{}, orierr.New(orierr.KindValidation, "tool.read_file", "path is required")
			}

			resolved, err := cfg.FileSandbox.Resolve(pathStr)
			if err != nil {
				return component.Output{}, err
			}

			info, err := os.Stat(resolved)
			if err != nil {
				return component.Output{}, orierr.Wrap(orierr.KindNotFound, "tool.read_file", err)
			}
			if info.Size() > maxBytes {
				return component.Output{}, orierr.New(orierr.KindResourceLimit, "tool.read_file", "file exceeds max_bytes")
			}

			data, err := os.ReadFile(resolved)
			if err != nil {
				return component.Output{}, orierr.Wrap(orierr.KindInternal, "tool.read_file", err)
			}
			return component.Output{Text: string(data)}, nil
		},
	})
}

// WriteFileConfig bundles the sandbox a write_file reference tool is
// built with.
type WriteFileConfig struct {
	FileSandbox *sandbox.FileSandbox
	MaxBytes    int64
}

// NewWriteFile builds the write-side counterpart to NewReadFile,
// grounded on the teacher's pkg/tools/file_writer.go: resolve through
// the sandbox, refuse writes over the size limit, write atomically via
// a temp file plus rename so a failed write never corrupts the target.
func NewWriteFile(cfg WriteFileConfig) *Tool {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = sandbox.DefaultLimits().MaxFileSizeBytes
	}
	return New(Config{
		Meta:     component.Metadata{Name: "write_file", Description: "writes a file under an allowed root"},
		Category: "reference",
		Schema: Schema{Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "path relative to an allowed root", Required: true},
			{Name: "content", Type: "string", Description: "content to write", Required: true},
		}},
		Security: SecurityRequirements{
			Privilege:    PrivilegeRestricted,
			AllowedPaths: cfg.FileSandbox.Roots(),
		},
		FileSandbox: cfg.FileSandbox,
		Limits:      sandbox.Limits{MaxFileSizeBytes: maxBytes},
		Execute: func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			pathVal, _ := in.Param("path")
			path, _ := pathVal.(string)
			contentVal, _ := in.Param("content")
			content, _ := contentVal.(string)
			if path == "" {
				return component.Output{}, orierr.New(orierr.KindValidation, "tool.write_file", "path is required")
			}
			if int64(len(content)) > maxBytes {
				return component.Output{}, orierr.New(orierr.KindResourceLimit, "tool.write_file", "content exceeds max_bytes")
			}

			resolved, err := cfg.FileSandbox.Resolve(path)
			if err != nil {
				return component.Output{}, err
			}

			tmp := resolved + ".orin-tmp"
			if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
				return component.Output{}, orierr.Wrap(orierr.KindInternal, "tool.write_file", err)
			}
			if err := os.Rename(tmp, resolved); err != nil {
				os.Remove(tmp)
				return component.Output{}, orierr.Wrap(orierr.KindInternal, "tool.write_file", err)
			}
			return component.Output{Text: strings.TrimSpace(path) + " written"}, nil
		},
	})
}
