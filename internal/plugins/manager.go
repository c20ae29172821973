package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conneroisu/sitemin/internal/logging"
	"github.com/conneroisu/sitemin/internal/types"
)

// PluginManager manages the lifecycle of plugins and runs file plugins over
// batches in registration order.
type PluginManager struct {
	plugins      map[string]Plugin
	filePlugins  []FilePlugin
	configs      map[string]PluginConfig
	healthChecks map[string]PluginHealth
	logger       logging.Logger
	mu           sync.RWMutex
}

// NewPluginManager creates a new plugin manager
func NewPluginManager(logger logging.Logger) *PluginManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &PluginManager{
		plugins:      make(map[string]Plugin),
		configs:      make(map[string]PluginConfig),
		healthChecks: make(map[string]PluginHealth),
		logger:       logger.WithComponent("plugins"),
	}
}

// RegisterPlugin initializes and registers a plugin. A plugin whose
// Initialize fails is not registered.
func (pm *PluginManager) RegisterPlugin(ctx context.Context, plugin Plugin, config PluginConfig) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	name := plugin.Name()
	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	if err := plugin.Initialize(ctx, config); err != nil {
		return fmt.Errorf("failed to initialize plugin %s: %w", name, err)
	}

	pm.plugins[name] = plugin
	pm.configs[name] = config

	if fp, ok := plugin.(FilePlugin); ok {
		pm.filePlugins = append(pm.filePlugins, fp)
	}

	pm.logger.Debug(ctx, "Plugin registered", "plugin", name, "version", plugin.Version())

	return nil
}

// UnregisterPlugin shuts down and removes a plugin
func (pm *PluginManager) UnregisterPlugin(ctx context.Context, name string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	plugin, exists := pm.plugins[name]
	if !exists {
		return fmt.Errorf("plugin %s not found", name)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := plugin.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown plugin %s: %w", name, err)
	}

	delete(pm.plugins, name)
	delete(pm.configs, name)
	delete(pm.healthChecks, name)

	for i, fp := range pm.filePlugins {
		if fp.Name() == name {
			pm.filePlugins = append(pm.filePlugins[:i], pm.filePlugins[i+1:]...)
			break
		}
	}

	return nil
}

// GetPlugin retrieves a plugin by name
func (pm *PluginManager) GetPlugin(name string) (Plugin, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	plugin, exists := pm.plugins[name]
	if !exists {
		return nil, fmt.Errorf("plugin %s not found", name)
	}

	return plugin, nil
}

// ListPlugins returns all registered plugins with their latest health
func (pm *PluginManager) ListPlugins() []PluginInfo {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	plugins := make([]PluginInfo, 0, len(pm.plugins))
	for name, plugin := range pm.plugins {
		health, checked := pm.healthChecks[name]
		if !checked {
			health = plugin.Health()
		}

		plugins = append(plugins, PluginInfo{
			Name:        name,
			Version:     plugin.Version(),
			Description: plugin.Description(),
			Enabled:     pm.configs[name].Enabled,
			Health:      health,
		})
	}

	return plugins
}

// ProcessFiles runs every enabled file plugin over files, in registration
// order. When a plugin returns a non-nil slice it replaces the batch for the
// plugins after it. The first plugin error stops the run.
func (pm *PluginManager) ProcessFiles(ctx context.Context, files []*types.File) ([]*types.File, error) {
	pm.mu.RLock()
	plugins := make([]FilePlugin, len(pm.filePlugins))
	copy(plugins, pm.filePlugins)
	configs := make(map[string]PluginConfig, len(pm.configs))
	for name, config := range pm.configs {
		configs[name] = config
	}
	pm.mu.RUnlock()

	for _, plugin := range plugins {
		config := configs[plugin.Name()]
		if !config.Enabled {
			continue
		}

		result, err := pm.runPlugin(ctx, plugin, config, files)
		if err != nil {
			return files, fmt.Errorf("plugin %s failed to process files: %w", plugin.Name(), err)
		}
		if result != nil {
			files = result
		}
	}

	return files, nil
}

func (pm *PluginManager) runPlugin(
	ctx context.Context,
	plugin FilePlugin,
	config PluginConfig,
	files []*types.File,
) ([]*types.File, error) {
	if config.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Settings.Timeout)
		defer cancel()
	}

	perf := logging.StartOperation(pm.logger.With("plugin", plugin.Name()), "process_files")
	result, err := plugin.ProcessFiles(ctx, files)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	perf.End(ctx)

	return result, nil
}

// CheckHealth refreshes the recorded health of every plugin
func (pm *PluginManager) CheckHealth() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for name, plugin := range pm.plugins {
		health := plugin.Health()
		health.LastCheck = time.Now()
		pm.healthChecks[name] = health
	}
}

// Shutdown gracefully shuts down all plugins
func (pm *PluginManager) Shutdown(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []error
	for name, plugin := range pm.plugins {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := plugin.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown plugin %s: %w", name, err))
		}
		cancel()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
