// Package config provides configuration loading and management for the
// Orin runtime.
//
// Orin is config-first: the script engine, hook rate limits, event
// filtering, tool sandboxing, and provider credentials are all defined in
// YAML and the runtime builds itself around them at start.
//
// Example config:
//
//	runtime:
//	  default_engine: goja
//	  max_concurrent_scripts: 16
//
//	providers:
//	  default: anthropic
//	  anthropic:
//	    model: claude-sonnet-4-20250514
//	    api_key: ${ANTHROPIC_API_KEY}
//
//	tools:
//	  file_operations:
//	    allowed_paths: ["./workspace"]
//
//	debug:
//	  level: info
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure.
type Config struct {
	Runtime   RuntimeConfig   `yaml:"runtime,omitempty"`
	Hooks     HooksConfig     `yaml:"hooks,omitempty"`
	Events    EventsConfig    `yaml:"events,omitempty"`
	Tools     ToolsConfig     `yaml:"tools,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Debug     DebugConfig     `yaml:"debug,omitempty"`
}

// SetDefaults applies default values across every section.
func (c *Config) SetDefaults() {
	c.Runtime.SetDefaults()
	c.Hooks.SetDefaults()
	c.Events.SetDefaults()
	c.Tools.SetDefaults()
	c.Providers.SetDefaults()
	c.Debug.SetDefaults()
}

// Validate checks the configuration for errors, collecting every
// section's complaint rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []string

	if err := c.Runtime.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("runtime: %v", err))
	}
	if err := c.Hooks.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("hooks: %v", err))
	}
	if err := c.Events.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("events: %v", err))
	}
	if err := c.Tools.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("tools: %v", err))
	}
	if err := c.Providers.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("providers: %v", err))
	}
	if err := c.Debug.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("debug: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// GetProvider returns the named provider entry.
func (c *Config) GetProvider(name string) (*ProviderEntry, bool) {
	entry, ok := c.Providers.Providers[name]
	return entry, ok
}

// DefaultProvider returns the provider entry referenced by
// providers.default, or false if none is set.
func (c *Config) DefaultProvider() (*ProviderEntry, bool) {
	if c.Providers.Default == "" {
		return nil, false
	}
	return c.GetProvider(c.Providers.Default)
}
