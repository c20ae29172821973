// Package builtin contains the plugins that ship with sitemin.
package builtin

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/conneroisu/sitemin/internal/config"
	"github.com/conneroisu/sitemin/internal/engine"
	siteminerrors "github.com/conneroisu/sitemin/internal/errors"
	"github.com/conneroisu/sitemin/internal/logging"
	"github.com/conneroisu/sitemin/internal/minifier"
	"github.com/conneroisu/sitemin/internal/pattern"
	"github.com/conneroisu/sitemin/internal/plugins"
	"github.com/conneroisu/sitemin/internal/types"
	"github.com/conneroisu/sitemin/internal/version"
)

// Category is one of the content kinds the minify plugin transforms.
type Category string

const (
	CategoryNone Category = ""
	CategoryCSS  Category = "css"
	CategoryHTML Category = "html"
	CategoryJS   Category = "js"
)

// MinifyPlugin routes text files to the CSS, HTML or JS minifier by path.
// Categories are tested in that order and the first match wins.
type MinifyPlugin struct {
	logger logging.Logger

	mu      sync.RWMutex
	options config.MinifyOptions
	set     *minifier.Set
	css     *pattern.Matcher
	html    *pattern.Matcher
	js      *pattern.Matcher
	workers int

	processed atomic.Int64
	minified  [3]atomic.Int64
	skipped   atomic.Int64
	failures  atomic.Int64

	// last HTML engine error; the batch it hit was aborted
	htmlErr atomic.Pointer[string]
}

// NewMinifyPlugin creates an unconfigured minify plugin.
func NewMinifyPlugin(logger logging.Logger) *MinifyPlugin {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &MinifyPlugin{
		logger:  logger.WithComponent("minify"),
		workers: 1,
	}
}

// Name returns the plugin name.
func (mp *MinifyPlugin) Name() string {
	return "minify"
}

// Version returns the plugin version.
func (mp *MinifyPlugin) Version() string {
	return version.GetVersion()
}

// Description returns the plugin description.
func (mp *MinifyPlugin) Description() string {
	return "Minifies CSS, HTML and JS files selected by glob patterns"
}

// Initialize decodes and validates config.Config, then builds the adapters
// and matchers. Nothing is changed when the configuration is rejected.
func (mp *MinifyPlugin) Initialize(ctx context.Context, cfg plugins.PluginConfig) error {
	options, err := config.DecodeMinifyOptions(cfg.Config)
	if err != nil {
		return siteminerrors.NewConfigError(siteminerrors.ErrCodeConfigInvalid,
			"invalid minify options", err)
	}

	return mp.Configure(ctx, options, cfg.Settings.ResourceLimits.MaxGoroutines)
}

// Configure applies already-decoded options. workers below 2 means files are
// processed sequentially.
func (mp *MinifyPlugin) Configure(ctx context.Context, options config.MinifyOptions, workers int) error {
	result := config.ValidateMinifyOptions(&options)
	if err := result.Err(); err != nil {
		return siteminerrors.NewConfigError(siteminerrors.ErrCodeConfigInvalid,
			"invalid minify options", err)
	}
	for _, warning := range result.Warnings {
		mp.logger.Warn(ctx, &warning, "Questionable minify options")
	}

	css, err := compileCategory(CategoryCSS, options.PatternsCSS, options.PatternOptions)
	if err != nil {
		return err
	}
	html, err := compileCategory(CategoryHTML, options.PatternsHTML, options.PatternOptions)
	if err != nil {
		return err
	}
	js, err := compileCategory(CategoryJS, options.PatternsJS, options.PatternOptions)
	if err != nil {
		return err
	}

	set := minifier.New(minifier.Options{
		CSS:  options.CSS,
		HTML: options.HTML,
		JS:   options.JS,
	}, mp.logger)

	if workers < 1 {
		workers = 1
	}

	mp.mu.Lock()
	mp.options = options
	mp.set = set
	mp.css, mp.html, mp.js = css, html, js
	mp.workers = workers
	mp.mu.Unlock()

	mp.logger.Debug(ctx, "Minify plugin configured",
		"css", css.String(),
		"html", html.String(),
		"js", js.String(),
		"workers", workers)

	return nil
}

// compileCategory returns a nil matcher for a disabled category.
func compileCategory(category Category, patterns config.Patterns, options pattern.Options) (*pattern.Matcher, error) {
	if !patterns.Enabled() {
		return nil, nil
	}

	m, err := pattern.Compile(patterns, options)
	if err != nil {
		return nil, siteminerrors.NewConfigError(siteminerrors.ErrCodePatternInvalid,
			fmt.Sprintf("invalid %s patterns", category), err).
			WithContext("patterns", []string(patterns))
	}

	return m, nil
}

// Classify returns the category path is routed to, or CategoryNone.
func (mp *MinifyPlugin) Classify(path string) Category {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.classify(path)
}

func (mp *MinifyPlugin) classify(path string) Category {
	switch {
	case mp.css.Test(path):
		return CategoryCSS
	case mp.html.Test(path):
		return CategoryHTML
	case mp.js.Test(path):
		return CategoryJS
	}

	return CategoryNone
}

// ProcessFiles minifies matching text files in place and returns nil. A file
// without content stops the batch with a contract error; files before it have
// already been minified. An HTML engine failure stops the batch the same way.
// With more than one worker the first failure cancels files not yet started.
func (mp *MinifyPlugin) ProcessFiles(ctx context.Context, files []*types.File) ([]*types.File, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if mp.set == nil {
		return nil, siteminerrors.NewInternalError(siteminerrors.ErrCodePluginInit,
			"minify plugin used before Initialize", nil)
	}

	if mp.workers < 2 || len(files) < 2 {
		for _, file := range files {
			if err := mp.processFile(ctx, file); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(mp.workers)
	for _, file := range files {
		file := file
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return mp.processFile(ctx, file)
		})
	}

	return nil, p.Wait()
}

func (mp *MinifyPlugin) processFile(ctx context.Context, file *types.File) error {
	if file.Content == nil {
		mp.failures.Add(1)
		return siteminerrors.NewContractError(siteminerrors.ErrCodeContentMissing,
			"file has no content, it must be loaded before minification").
			WithFile(file.Path)
	}

	if !file.IsText() {
		mp.skipped.Add(1)
		mp.logger.Debug(ctx, "Content not valid for processing", "path", file.Path)
		return nil
	}

	category := mp.classify(file.Path)
	switch category {
	case CategoryCSS:
		file.Content.Data = mp.set.CSS(file.Content.Data, engine.OriginStylesheet)
	case CategoryHTML:
		out, err := mp.set.HTML(file.Content.Data)
		if err != nil {
			mp.failures.Add(1)
			msg := fmt.Sprintf("%s: %v", file.Path, err)
			mp.htmlErr.Store(&msg)
			return siteminerrors.NewEngineError(siteminerrors.ErrCodeHTMLMinify,
				"HTML minification failed", err).
				WithFile(file.Path)
		}
		file.Content.Data = out
	case CategoryJS:
		file.Content.Data = mp.set.JS(file.Content.Data)
	default:
		mp.skipped.Add(1)
		mp.logger.Debug(ctx, "No pattern matched", "path", file.Path)
		return nil
	}

	mp.processed.Add(1)
	mp.minified[categoryIndex(category)].Add(1)
	mp.logger.Debug(ctx, "File minified", "path", file.Path, "category", string(category))

	return nil
}

func categoryIndex(category Category) int {
	switch category {
	case CategoryCSS:
		return 0
	case CategoryHTML:
		return 1
	default:
		return 2
	}
}

// Shutdown releases the adapters. The plugin must be initialized again
// before further use.
func (mp *MinifyPlugin) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.set = nil
	mp.css, mp.html, mp.js = nil, nil, nil

	return nil
}

// Health reports counters and the active pattern sets.
func (mp *MinifyPlugin) Health() plugins.PluginHealth {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if mp.set == nil {
		return plugins.PluginHealth{
			Status: plugins.HealthStatusUnknown,
			Error:  "not initialized",
		}
	}

	fallbacks := mp.set.Fallbacks()
	status := plugins.HealthStatusHealthy
	if fallbacks > 0 || mp.failures.Load() > 0 {
		status = plugins.HealthStatusDegraded
	}

	var lastErr string
	if msg := mp.htmlErr.Load(); msg != nil {
		status = plugins.HealthStatusUnhealthy
		lastErr = *msg
	}

	return plugins.PluginHealth{
		Status: status,
		Error:  lastErr,
		Metrics: map[string]interface{}{
			"files_processed":  mp.processed.Load(),
			"css_minified":     mp.minified[0].Load(),
			"html_minified":    mp.minified[1].Load(),
			"js_minified":      mp.minified[2].Load(),
			"files_skipped":    mp.skipped.Load(),
			"failures":         mp.failures.Load(),
			"engine_fallbacks": fallbacks,
			"patterns_css":     mp.css.String(),
			"patterns_html":    mp.html.String(),
			"patterns_js":      mp.js.String(),
		},
	}
}
