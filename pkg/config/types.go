// Package config provides configuration types and utilities for the Orin
// runtime. This file contains all configuration types in a unified
// structure, mirroring the section layout of the runtime's YAML schema.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// RUNTIME CONFIGURATION
// ============================================================================

// RuntimeConfig holds the core script-runtime knobs (default_engine,
// script_timeout_seconds, max_concurrent_scripts) plus its two nested
// sub-schemas.
type RuntimeConfig struct {
	DefaultEngine        string `yaml:"default_engine,omitempty"`
	ScriptTimeoutSeconds uint64 `yaml:"script_timeout_seconds,omitempty"`
	MaxConcurrentScripts int    `yaml:"max_concurrent_scripts,omitempty"`

	StatePersistence StatePersistenceConfig `yaml:"state_persistence,omitempty"`
	Sessions         RuntimeSessionsConfig  `yaml:"sessions,omitempty"`
}

// Validate implements Config.Validate for RuntimeConfig.
func (c *RuntimeConfig) Validate() error {
	if c.DefaultEngine == "" {
		return fmt.Errorf("default_engine is required")
	}
	switch c.DefaultEngine {
	case "goja", "lua":
		// valid
	default:
		return fmt.Errorf("invalid default_engine '%s' (must be 'goja' or 'lua')", c.DefaultEngine)
	}
	if c.MaxConcurrentScripts <= 0 {
		return fmt.Errorf("max_concurrent_scripts must be positive")
	}
	if err := c.StatePersistence.Validate(); err != nil {
		return fmt.Errorf("state_persistence validation failed: %w", err)
	}
	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for RuntimeConfig.
func (c *RuntimeConfig) SetDefaults() {
	if c.DefaultEngine == "" {
		c.DefaultEngine = "goja"
	}
	if c.ScriptTimeoutSeconds == 0 {
		c.ScriptTimeoutSeconds = 30
	}
	if c.MaxConcurrentScripts == 0 {
		c.MaxConcurrentScripts = 16
	}
	c.StatePersistence.SetDefaults()
	c.Sessions.SetDefaults()
}

// StatePersistenceConfig is runtime.state_persistence.*.
type StatePersistenceConfig struct {
	Enabled           bool   `yaml:"enabled,omitempty"`
	Backend           string `yaml:"backend,omitempty"`
	Path              string `yaml:"path,omitempty"`
	MigrationEnabled  bool   `yaml:"migration_enabled,omitempty"`
	BackupEnabled     bool   `yaml:"backup_enabled,omitempty"`
	BackupDir         string `yaml:"backup_dir,omitempty"`
	MaxStateSizeBytes int64  `yaml:"max_state_size_bytes,omitempty"`
}

// Validate implements Config.Validate for StatePersistenceConfig.
func (c *StatePersistenceConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Backend {
	case "memory", "bbolt":
		// valid
	default:
		return fmt.Errorf("invalid state_persistence backend '%s' (must be 'memory' or 'bbolt')", c.Backend)
	}
	if c.Backend == "bbolt" && c.Path == "" {
		return fmt.Errorf("path is required when state_persistence backend is 'bbolt'")
	}
	if c.MaxStateSizeBytes < 0 {
		return fmt.Errorf("max_state_size_bytes must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for StatePersistenceConfig.
func (c *StatePersistenceConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "bbolt" && c.Path == "" {
		c.Path = "./orin-state.db"
	}
	if c.BackupEnabled && c.BackupDir == "" {
		c.BackupDir = "./orin-state-backups"
	}
	if c.MaxStateSizeBytes == 0 {
		c.MaxStateSizeBytes = 64 * 1024 * 1024 // 64MB
	}
}

// RuntimeSessionsConfig is runtime.sessions.*.
type RuntimeSessionsConfig struct {
	Enabled                bool   `yaml:"enabled,omitempty"`
	Backend                string `yaml:"backend,omitempty"`
	Max                    int    `yaml:"max,omitempty"`
	TimeoutSeconds         uint64 `yaml:"timeout_seconds,omitempty"`
	MaxArtifactsPerSession int    `yaml:"max_artifacts_per_session,omitempty"`
}

// Validate implements Config.Validate for RuntimeSessionsConfig.
func (c *RuntimeSessionsConfig) Validate() error {
	if c.Max < 0 {
		return fmt.Errorf("max must be non-negative")
	}
	if c.MaxArtifactsPerSession < 0 {
		return fmt.Errorf("max_artifacts_per_session must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for RuntimeSessionsConfig.
func (c *RuntimeSessionsConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Max == 0 {
		c.Max = 256
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 3600
	}
	if c.MaxArtifactsPerSession == 0 {
		c.MaxArtifactsPerSession = 100
	}
}

// ============================================================================
// HOOKS CONFIGURATION
// ============================================================================

// HooksConfig is hooks.*.
type HooksConfig struct {
	Enabled   bool          `yaml:"enabled,omitempty"`
	RateLimit RateLimitSpec `yaml:"rate_limit,omitempty"`
}

// Validate implements Config.Validate for HooksConfig.
func (c *HooksConfig) Validate() error {
	return c.RateLimit.Validate()
}

// SetDefaults implements Config.SetDefaults for HooksConfig.
func (c *HooksConfig) SetDefaults() {
	c.RateLimit.SetDefaults()
}

// RateLimitSpec bounds hook invocations per window, the config-facing
// twin of pkg/hook.CircuitBreaker's budget/window/cooldown triple.
type RateLimitSpec struct {
	Budget   float64       `yaml:"budget,omitempty"`
	Window   time.Duration `yaml:"window,omitempty"`
	Cooldown time.Duration `yaml:"cooldown,omitempty"`
}

// rateLimitSpecYAML mirrors RateLimitSpec with its durations as strings,
// since time.Duration has no YAML-native representation: "10s" parses
// through time.ParseDuration rather than yaml.v3's numeric decoder.
type rateLimitSpecYAML struct {
	Budget   float64 `yaml:"budget,omitempty"`
	Window   string  `yaml:"window,omitempty"`
	Cooldown string  `yaml:"cooldown,omitempty"`
}

// UnmarshalYAML accepts window/cooldown as duration strings ("10s", "2m").
func (c *RateLimitSpec) UnmarshalYAML(value *yaml.Node) error {
	var raw rateLimitSpecYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Budget = raw.Budget
	if raw.Window != "" {
		d, err := time.ParseDuration(raw.Window)
		if err != nil {
			return fmt.Errorf("window: %w", err)
		}
		c.Window = d
	}
	if raw.Cooldown != "" {
		d, err := time.ParseDuration(raw.Cooldown)
		if err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		c.Cooldown = d
	}
	return nil
}

// MarshalYAML renders window/cooldown back to duration strings.
func (c RateLimitSpec) MarshalYAML() (interface{}, error) {
	return rateLimitSpecYAML{
		Budget:   c.Budget,
		Window:   c.Window.String(),
		Cooldown: c.Cooldown.String(),
	}, nil
}

// Validate implements Config.Validate for RateLimitSpec.
func (c *RateLimitSpec) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("budget must be non-negative")
	}
	if c.Window < 0 {
		return fmt.Errorf("window must be non-negative")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for RateLimitSpec.
func (c *RateLimitSpec) SetDefaults() {
	if c.Budget == 0 {
		c.Budget = 0.05 // hook time as a share of body time: the 5% budget pkg/hook.CircuitBreaker documents
	}
	if c.Window == 0 {
		c.Window = 10 * time.Second
	}
	if c.Cooldown == 0 {
		c.Cooldown = 30 * time.Second
	}
}

// ============================================================================
// EVENTS CONFIGURATION
// ============================================================================

// EventsConfig is events.* and events.filtering.*.
type EventsConfig struct {
	Enabled            bool            `yaml:"enabled,omitempty"`
	BufferSize         int             `yaml:"buffer_size,omitempty"`
	EmitTimingEvents   bool            `yaml:"emit_timing_events,omitempty"`
	EmitStateEvents    bool            `yaml:"emit_state_events,omitempty"`
	MaxEventsPerSecond float64         `yaml:"max_events_per_second,omitempty"`
	Filtering          EventFilterSpec `yaml:"filtering,omitempty"`
}

// Validate implements Config.Validate for EventsConfig.
func (c *EventsConfig) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be non-negative")
	}
	if c.MaxEventsPerSecond < 0 {
		return fmt.Errorf("max_events_per_second must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for EventsConfig.
func (c *EventsConfig) SetDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = 1024
	}
	if c.MaxEventsPerSecond == 0 {
		c.MaxEventsPerSecond = 1000
	}
}

// EventFilterSpec is events.filtering.*.
type EventFilterSpec struct {
	IncludeTypes      []string `yaml:"include_types,omitempty"`
	ExcludeTypes      []string `yaml:"exclude_types,omitempty"`
	IncludeComponents []string `yaml:"include_components,omitempty"`
	ExcludeComponents []string `yaml:"exclude_components,omitempty"`
}

// ============================================================================
// TOOLS CONFIGURATION
// ============================================================================

// ToolsConfig groups the per-built-in-tool sections under tools.*.
type ToolsConfig struct {
	FileOperations FileOperationsConfig `yaml:"file_operations,omitempty"`
	WebSearch      WebSearchConfig      `yaml:"web_search,omitempty"`
	HTTPRequest    HTTPRequestConfig    `yaml:"http_request,omitempty"`
}

// Validate implements Config.Validate for ToolsConfig.
func (c *ToolsConfig) Validate() error {
	if err := c.FileOperations.Validate(); err != nil {
		return fmt.Errorf("file_operations validation failed: %w", err)
	}
	if err := c.WebSearch.Validate(); err != nil {
		return fmt.Errorf("web_search validation failed: %w", err)
	}
	if err := c.HTTPRequest.Validate(); err != nil {
		return fmt.Errorf("http_request validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for ToolsConfig.
func (c *ToolsConfig) SetDefaults() {
	c.FileOperations.SetDefaults()
	c.WebSearch.SetDefaults()
	c.HTTPRequest.SetDefaults()
}

// FileOperationsConfig is tools.file_operations.*.
type FileOperationsConfig struct {
	AllowedPaths      []string `yaml:"allowed_paths,omitempty"`
	MaxFileSize       int64    `yaml:"max_file_size,omitempty"`
	AtomicWrites      bool     `yaml:"atomic_writes,omitempty"`
	MaxDepth          int      `yaml:"max_depth,omitempty"`
	AllowedExtensions []string `yaml:"allowed_extensions,omitempty"`
	BlockedExtensions []string `yaml:"blocked_extensions,omitempty"`
	ValidateFileTypes bool     `yaml:"validate_file_types,omitempty"`
}

// Validate implements Config.Validate for FileOperationsConfig.
func (c *FileOperationsConfig) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be non-negative")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for FileOperationsConfig.
func (c *FileOperationsConfig) SetDefaults() {
	if len(c.AllowedPaths) == 0 {
		c.AllowedPaths = []string{"./"}
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 10 * 1024 * 1024 // 10MB
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 8
	}
	c.AtomicWrites = true
}

// WebSearchConfig is tools.web_search.*.
type WebSearchConfig struct {
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute,omitempty"`
	AllowedDomains     []string `yaml:"allowed_domains,omitempty"`
	BlockedDomains     []string `yaml:"blocked_domains,omitempty"`
	MaxResults         int      `yaml:"max_results,omitempty"`
	TimeoutSeconds     uint64   `yaml:"timeout_seconds,omitempty"`
	UserAgent          string   `yaml:"user_agent,omitempty"`
}

// Validate implements Config.Validate for WebSearchConfig.
func (c *WebSearchConfig) Validate() error {
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be non-negative")
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for WebSearchConfig.
func (c *WebSearchConfig) SetDefaults() {
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
	if c.MaxResults == 0 {
		c.MaxResults = 10
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.UserAgent == "" {
		c.UserAgent = "orin-runtime/1.0"
	}
}

// HTTPRequestConfig is tools.http_request.*.
type HTTPRequestConfig struct {
	AllowedHosts   []string          `yaml:"allowed_hosts,omitempty"`
	BlockedHosts   []string          `yaml:"blocked_hosts,omitempty"`
	MaxRequestSize int64             `yaml:"max_request_size,omitempty"`
	TimeoutSeconds uint64            `yaml:"timeout_seconds,omitempty"`
	MaxRedirects   int               `yaml:"max_redirects,omitempty"`
	DefaultHeaders map[string]string `yaml:"default_headers,omitempty"`
}

// Validate implements Config.Validate for HTTPRequestConfig.
func (c *HTTPRequestConfig) Validate() error {
	if c.MaxRequestSize < 0 {
		return fmt.Errorf("max_request_size must be non-negative")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max_redirects must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for HTTPRequestConfig.
func (c *HTTPRequestConfig) SetDefaults() {
	if c.MaxRequestSize == 0 {
		c.MaxRequestSize = 10 * 1024 * 1024 // 10MB
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = 5
	}
}

// ============================================================================
// PROVIDERS CONFIGURATION
// ============================================================================

// ProvidersConfig is providers.*: a default provider name plus a map of
// per-provider settings, keyed by provider name at the same YAML level
// as "default" (providers.openai, providers.anthropic, ...). A plain
// struct tag can't express "every other key in this map", so
// ProvidersConfig implements yaml.Unmarshaler directly.
type ProvidersConfig struct {
	Default   string
	Providers map[string]*ProviderEntry
}

// UnmarshalYAML pulls "default" out as a sibling field and decodes every
// remaining key as a named provider entry.
func (c *ProvidersConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Providers = make(map[string]*ProviderEntry, len(raw))
	for key, node := range raw {
		if key == "default" {
			if err := node.Decode(&c.Default); err != nil {
				return fmt.Errorf("providers.default: %w", err)
			}
			continue
		}
		entry := &ProviderEntry{}
		if err := node.Decode(entry); err != nil {
			return fmt.Errorf("providers.%s: %w", key, err)
		}
		c.Providers[key] = entry
	}
	return nil
}

// MarshalYAML reassembles "default" and the provider entries into one
// flat mapping, the inverse of UnmarshalYAML.
func (c ProvidersConfig) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(c.Providers)+1)
	if c.Default != "" {
		out["default"] = c.Default
	}
	for name, entry := range c.Providers {
		out[name] = entry
	}
	return out, nil
}

// Validate implements Config.Validate for ProvidersConfig.
func (c *ProvidersConfig) Validate() error {
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("providers.default references unknown provider '%s'", c.Default)
		}
	}
	for name, entry := range c.Providers {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("provider '%s' validation failed: %w", name, err)
		}
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for ProvidersConfig.
func (c *ProvidersConfig) SetDefaults() {
	for _, entry := range c.Providers {
		entry.SetDefaults()
	}
}

// ProviderEntry is providers.<name>.*.
type ProviderEntry struct {
	APIKey         string         `yaml:"api_key,omitempty"`
	BaseURL        string         `yaml:"base_url,omitempty"`
	Model          string         `yaml:"model,omitempty"`
	TimeoutSeconds uint64         `yaml:"timeout_seconds,omitempty"`
	MaxRetries     int            `yaml:"max_retries,omitempty"`
	Options        map[string]any `yaml:"options,omitempty"`
}

// Validate implements Config.Validate for ProviderEntry.
func (c *ProviderEntry) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for ProviderEntry.
func (c *ProviderEntry) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// ============================================================================
// DEBUG CONFIGURATION
// ============================================================================

// DebugConfig is debug.*: the one namespace the Config global's
// set_value is permitted to mutate at runtime (see Store.SetValue),
// since the Debug global's set/clear module filters operation needs
// somewhere live to land.
type DebugConfig struct {
	Level                string   `yaml:"level,omitempty"`
	Outputs              []string `yaml:"outputs,omitempty"`
	ModuleFilters        []string `yaml:"module_filters,omitempty"`
	PerformanceProfiling bool     `yaml:"performance_profiling,omitempty"`
	PrettyJSON           bool     `yaml:"pretty_json,omitempty"`
}

// Validate implements Config.Validate for DebugConfig.
func (c *DebugConfig) Validate() error {
	switch c.Level {
	case "", "trace", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid debug level '%s'", c.Level)
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for DebugConfig.
func (c *DebugConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if len(c.Outputs) == 0 {
		c.Outputs = []string{"stdout"}
	}
}
