// Package build runs the sitemin pipeline: load the input tree into file
// records, hand the batch to the registered plugins, and write the result.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/sitemin/internal/config"
	"github.com/conneroisu/sitemin/internal/logging"
	"github.com/conneroisu/sitemin/internal/pattern"
	"github.com/conneroisu/sitemin/internal/plugins"
)

// Pipeline loads, processes and writes one site per Run.
type Pipeline struct {
	cfg       config.BuildConfig
	manager   *plugins.PluginManager
	logger    logging.Logger
	metrics   *BuildMetrics
	callbacks []BuildCallback
	mu        sync.Mutex
}

// BuildResult represents the result of a build operation
type BuildResult struct {
	Success        bool
	Duration       time.Duration
	FilesProcessed int
	Output         string
	Error          error
}

// BuildCallback is called when a build completes
type BuildCallback func(result BuildResult)

// NewPipeline creates a pipeline that runs manager's plugins over cfg.Input.
func NewPipeline(cfg config.BuildConfig, manager *plugins.PluginManager, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Pipeline{
		cfg:     cfg,
		manager: manager,
		logger:  logger.WithComponent("build"),
		metrics: NewBuildMetrics(),
	}
}

// AddCallback registers a function called after every Run.
func (p *Pipeline) AddCallback(callback BuildCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.callbacks = append(p.callbacks, callback)
}

// Metrics returns a snapshot of the pipeline's build metrics.
func (p *Pipeline) Metrics() BuildMetrics {
	return p.metrics.GetSnapshot()
}

// Run performs one build. Concurrent calls are serialized.
func (p *Pipeline) Run(ctx context.Context) (BuildResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	perf := logging.StartOperation(p.logger, "build")

	count, err := p.run(ctx)
	result := BuildResult{
		Success:        err == nil,
		Duration:       time.Since(start),
		FilesProcessed: count,
		Output:         p.cfg.Output,
		Error:          err,
	}

	if err != nil {
		perf.EndWithError(ctx, err)
	} else {
		perf.End(ctx)
		p.logger.Info(ctx, "Build finished",
			"files", count,
			"output", p.cfg.Output,
			"duration", result.Duration)
	}

	p.metrics.RecordBuild(result)
	for _, callback := range p.callbacks {
		callback(result)
	}

	return result, err
}

func (p *Pipeline) run(ctx context.Context) (int, error) {
	ignore, err := IgnoreMatcher(p.cfg)
	if err != nil {
		return 0, err
	}

	files, err := LoadFiles(ctx, p.cfg.Input, ignore)
	if err != nil {
		return 0, err
	}
	p.logger.Debug(ctx, "Input loaded", "input", p.cfg.Input, "files", len(files))

	files, err = p.manager.ProcessFiles(ctx, files)
	if err != nil {
		return 0, err
	}

	if err := WriteFiles(ctx, p.cfg.Output, files); err != nil {
		return 0, err
	}

	return len(files), nil
}

// IgnoreMatcher compiles cfg.Ignore, adding the output directory when it lives
// inside the input directory. It returns nil when nothing is ignored.
func IgnoreMatcher(cfg config.BuildConfig) (*pattern.Matcher, error) {
	ignore := append([]string(nil), cfg.Ignore...)

	if rel, err := filepath.Rel(cfg.Input, cfg.Output); err == nil && filepath.IsLocal(rel) {
		ignore = append(ignore, filepath.ToSlash(rel)+"/**")
	}

	if len(ignore) == 0 {
		return nil, nil
	}

	m, err := pattern.Compile(ignore, pattern.Options{Globstar: true})
	if err != nil {
		return nil, fmt.Errorf("invalid ignore patterns [%s]: %w", strings.Join(ignore, ", "), err)
	}

	return m, nil
}
