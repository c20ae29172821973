// Package plugins defines the contract between the sitemin pipeline and its
// plugins, and the manager that drives registered plugins over file batches.
package plugins

import (
	"context"
	"time"

	"github.com/conneroisu/sitemin/internal/types"
)

// Plugin represents a sitemin plugin interface
type Plugin interface {
	// Name returns the unique name of the plugin
	Name() string

	// Version returns the version of the plugin
	Version() string

	// Description returns a description of what the plugin does
	Description() string

	// Initialize is called once with the plugin's configuration before any
	// batch is processed. Configuration errors must be returned here.
	Initialize(ctx context.Context, config PluginConfig) error

	// Shutdown gracefully shuts down the plugin
	Shutdown(ctx context.Context) error

	// Health returns the health status of the plugin
	Health() PluginHealth
}

// FilePlugin extends Plugin with batch processing of file records
type FilePlugin interface {
	Plugin

	// ProcessFiles is called once per batch. It may mutate the records in
	// place and return nil, or return a replacement slice.
	ProcessFiles(ctx context.Context, files []*types.File) ([]*types.File, error)
}

// PluginConfig contains configuration for a plugin
type PluginConfig struct {
	// Name of the plugin
	Name string `json:"name"`

	// Configuration data specific to the plugin
	Config map[string]interface{} `json:"config"`

	// Whether the plugin is enabled
	Enabled bool `json:"enabled"`

	// Plugin-specific settings
	Settings PluginSettings `json:"settings"`
}

// PluginSettings contains plugin-specific settings
type PluginSettings struct {
	// Timeout for a single ProcessFiles call; zero means no timeout
	Timeout time.Duration `json:"timeout"`

	// Resource limits
	ResourceLimits ResourceLimits `json:"resource_limits"`
}

// ResourceLimits defines resource constraints for plugins
type ResourceLimits struct {
	// Maximum number of goroutines a plugin may use for one batch
	MaxGoroutines int `json:"max_goroutines"`
}

// PluginHealth represents the health status of a plugin
type PluginHealth struct {
	// Status of the plugin
	Status HealthStatus `json:"status"`

	// Last check timestamp
	LastCheck time.Time `json:"last_check"`

	// Error message if unhealthy
	Error string `json:"error,omitempty"`

	// Additional health metrics
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// HealthStatus represents the health status values
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// PluginInfo contains information about a plugin
type PluginInfo struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Enabled     bool         `json:"enabled"`
	Health      PluginHealth `json:"health"`
}
