// Package tool defines the Tool capability: a specialization of
// component.BaseAgent carrying a schema, security requirements, and
// resource limits (spec.md section 4.3).
//
// The parameter/schema shape is adapted from the teacher's
// pkg/tools.ToolInfo/ToolParameter, generalized to also carry
// SecurityRequirements and an owning sandbox reference, since Orin's
// registry refuses to register an I/O-capable tool that was built
// without one.
//
// # Creating tools
//
// Safe, non-I/O tools go through New directly:
//
//	echo := tool.New(tool.Config{
//	    Meta:    component.Metadata{Name: "echo"},
//	    Execute: func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
//	        return component.Output{Text: in.Text}, nil
//	    },
//	})
//
// registry.RegisterTool rejects a tool whose Security.Privilege is above
// PrivilegeSafe and that declares AllowedPaths or AllowedHosts but has
// neither FileSandbox nor NetSandbox. A PrivilegeSafe tool registers
// without a sandbox whatever it declares.
package tool

import (
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/sandbox"
)

// Privilege is the minimum trust level a tool declares it needs.
type Privilege string

const (
	PrivilegeSafe       Privilege = "safe"
	PrivilegeRestricted Privilege = "restricted"
	PrivilegePrivileged Privilege = "privileged"
)

// Parameter describes one named input a tool accepts, in declaration
// order.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     any
	Enum        []string
}

// Schema is a tool's ordered parameter list plus an optional operation
// discriminator for multi-function tools (e.g. a "file" tool with
// operation=read|write|list).
type Schema struct {
	Operation  string
	Parameters []Parameter
}

// SecurityRequirements declares what a tool needs in order to run safely.
type SecurityRequirements struct {
	Privilege    Privilege
	AllowedPaths []string
	AllowedHosts []string
}

func (s SecurityRequirements) touchesIO() bool {
	return len(s.AllowedPaths) > 0 || len(s.AllowedHosts) > 0
}

// Category groups tools for discovery (the Tool global's
// "list-by-category").
type Category string

// Tool is the full capability: a BaseAgent plus the metadata a registry
// and a script bridge need to validate calls and render documentation.
type Tool struct {
	*component.Base

	category    Category
	schema      Schema
	security    SecurityRequirements
	limits      sandbox.Limits
	fileSandbox *sandbox.FileSandbox
	netSandbox  *sandbox.NetSandbox
}

// Config bundles everything needed to construct a Tool.
type Config struct {
	Meta        component.Metadata
	Category    Category
	Schema      Schema
	Security    SecurityRequirements
	Limits      sandbox.Limits
	FileSandbox *sandbox.FileSandbox
	NetSandbox  *sandbox.NetSandbox
	Execute     component.Body
	Validate    component.Validator
}

// New constructs a Tool. Registration — not construction — is where the
// sandbox requirement is enforced (see registry.RegisterTool), so New
// itself never errors on a missing sandbox; it simply records whether one
// was supplied.
func New(cfg Config) *Tool {
	cfg.Meta.Type = component.TypeTool
	return &Tool{
		Base:        component.NewBase(cfg.Meta, cfg.Execute, cfg.Validate, nil),
		category:    cfg.Category,
		schema:      cfg.Schema,
		security:    cfg.Security,
		limits:      cfg.Limits,
		fileSandbox: cfg.FileSandbox,
		netSandbox:  cfg.NetSandbox,
	}
}

func (t *Tool) Category() Category                         { return t.category }
func (t *Tool) Schema() Schema                              { return t.schema }
func (t *Tool) SecurityRequirements() SecurityRequirements  { return t.security }
func (t *Tool) Limits() sandbox.Limits                      { return t.limits }
func (t *Tool) FileSandbox() *sandbox.FileSandbox           { return t.fileSandbox }
func (t *Tool) NetSandbox() *sandbox.NetSandbox             { return t.netSandbox }

// RequiresSandbox implements registry.Sandboxed: true when the tool's
// declared security requirements touch the filesystem/network at a
// privilege above Safe.
func (t *Tool) RequiresSandbox() bool {
	return t.security.Privilege != PrivilegeSafe && t.security.touchesIO()
}

// HasSandbox implements registry.Sandboxed.
func (t *Tool) HasSandbox() bool {
	return t.fileSandbox != nil || t.netSandbox != nil
}
