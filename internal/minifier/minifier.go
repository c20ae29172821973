// Package minifier adapts the CSS, HTML and JS engines into the three
// functions the minify plugin dispatches to.
//
// The CSS and JS adapters never fail: when their engine reports errors, the
// errors are logged and the input is returned unchanged. The HTML adapter is
// wired so that the HTML engine calls back into the CSS and JS adapters for
// embedded content, which means embedded failures are absorbed the same way.
// Errors from the HTML engine itself are returned to the caller.
package minifier

import (
	"context"
	"regexp"
	"sync/atomic"

	"github.com/conneroisu/sitemin/internal/engine"
	"github.com/conneroisu/sitemin/internal/logging"
)

var (
	inlineUnwrap = regexp.MustCompile(`(?s)^\*\{(.*)\}$`)
	mediaUnwrap  = regexp.MustCompile(`(?s)^@media (.*?)\s*\{.*\}$`)
)

// Options bundles the per-engine options.
type Options struct {
	CSS  engine.CSSOptions
	HTML engine.HTMLOptions
	JS   engine.JSOptions
}

// Set holds the three adapters. A Set is safe for concurrent use.
type Set struct {
	css    engine.CSS
	js     engine.JS
	html   engine.HTML
	logger logging.Logger

	fallbacks atomic.Int64
}

// New creates a Set backed by the default engines.
func New(options Options, logger logging.Logger) *Set {
	return NewWithEngines(
		engine.NewCSS(options.CSS),
		engine.NewJS(options.JS),
		engine.NewHTMLFactory(options.HTML),
		logger,
	)
}

// NewWithEngines creates a Set from explicit engines. The HTML engine is built
// by newHTML with the Set's own CSS and JS adapters as its embedded callbacks.
func NewWithEngines(css engine.CSS, js engine.JS, newHTML engine.HTMLFactory, logger logging.Logger) *Set {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Set{
		css:    css,
		js:     js,
		logger: logger.WithComponent("minifier"),
	}
	s.html = newHTML(engine.Embedded{
		CSS: s.CSS,
		JS:  s.JS,
	})

	return s
}

// CSS minifies content. For OriginInline and OriginMedia the fragment is
// wrapped into a complete rule before minification and unwrapped afterwards.
// If the engine reports errors the (wrapped) input is returned as-is.
func (s *Set) CSS(content string, origin engine.Origin) string {
	switch origin {
	case engine.OriginInline:
		content = "*{" + content + "}"
	case engine.OriginMedia:
		content = "@media " + content + "{a{top:0}}"
	}

	styles, errs := s.css.Minify(content)
	if len(errs) > 0 {
		ctx := context.Background()
		for _, err := range errs {
			s.logger.Warn(ctx, err, "CSS minification failed, keeping original content",
				"origin", string(origin))
		}
		s.fallbacks.Add(1)
		return content
	}

	switch origin {
	case engine.OriginInline:
		return unwrap(inlineUnwrap, styles)
	case engine.OriginMedia:
		return unwrap(mediaUnwrap, styles)
	}

	return styles
}

// JS minifies content, returning it unchanged if the engine fails.
func (s *Set) JS(content string) string {
	code, err := s.js.Minify(content)
	if err != nil {
		s.logger.Warn(context.Background(), err, "JS minification failed, keeping original content")
		s.fallbacks.Add(1)
		return content
	}

	return code
}

// HTML minifies content. Embedded <style>, style="" and <script> content
// goes through CSS and JS.
func (s *Set) HTML(content string) (string, error) {
	return s.html.Minify(content)
}

// Fallbacks returns how many CSS or JS inputs were kept unminified because
// their engine failed.
func (s *Set) Fallbacks() int64 {
	return s.fallbacks.Load()
}

// unwrap returns the first capture group of re in styles, or styles itself
// when the engine produced something the wrapper pattern does not match.
func unwrap(re *regexp.Regexp, styles string) string {
	match := re.FindStringSubmatch(styles)
	if match == nil {
		return styles
	}

	return match[1]
}
