// Package engine provides the minification engines used by sitemin.
//
// Engines are opaque collaborators with a narrow contract: the CSS engine
// returns the minified styles plus any errors it found, the JS engine returns
// the minified code or an error, and the HTML engine returns the minified
// document or fails outright. The HTML engine is built with an Embedded seam
// so that <style>, style="" and <script> content is routed back through
// caller-supplied functions instead of the engine's own CSS/JS handling.
package engine

// Origin tells the CSS path what shape a fragment of CSS has.
type Origin string

const (
	// OriginStylesheet is a complete stylesheet.
	OriginStylesheet Origin = ""
	// OriginInline is a bare declaration list taken from a style attribute.
	OriginInline Origin = "inline"
	// OriginMedia is the query part of an @media rule. Only direct callers of
	// the CSS minifier pass it; HTML media attributes are left as written.
	OriginMedia Origin = "media"
)

// CSS minifies complete stylesheets.
type CSS interface {
	// Minify returns the minified styles and every error the engine reported.
	// When errs is non-empty the styles must not be used.
	Minify(src string) (styles string, errs []error)
}

// JS minifies JavaScript sources.
type JS interface {
	Minify(src string) (code string, err error)
}

// HTML minifies HTML documents.
type HTML interface {
	Minify(src string) (string, error)
}

// Embedded holds the callbacks an HTML engine uses for content embedded in a
// document. Both callbacks must be safe for concurrent use and never fail.
type Embedded struct {
	CSS func(content string, origin Origin) string
	JS  func(content string) string
}

// HTMLFactory builds an HTML engine wired to the given embedded callbacks.
type HTMLFactory func(embedded Embedded) HTML

// CSSOptions configures the CSS engine.
type CSSOptions struct {
	// Precision is the number of significant digits kept in numbers; 0 keeps all
	Precision int `yaml:"precision"`
	// KeepCSS2 avoids CSS3 shorthand rewrites for older browsers
	KeepCSS2 bool `yaml:"keep_css2"`
}

// JSOptions configures the JS engine.
type JSOptions struct {
	// Precision is the number of significant digits kept in numbers; 0 keeps all
	Precision int `yaml:"precision"`
	// KeepVarNames disables renaming of local variables
	KeepVarNames bool `yaml:"keep_var_names"`
}

// HTMLOptions configures the HTML engine. Every option is opt-in: a zero
// value leaves the corresponding markup untouched.
type HTMLOptions struct {
	CollapseWhitespace        bool `yaml:"collapse_whitespace"`
	RemoveComments            bool `yaml:"remove_comments"`
	RemoveOptionalTags        bool `yaml:"remove_optional_tags"`
	RemoveAttributeQuotes     bool `yaml:"remove_attribute_quotes"`
	RemoveRedundantAttributes bool `yaml:"remove_redundant_attributes"`
}

// DefaultHTMLOptions returns the HTML options used when none are configured.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{
		CollapseWhitespace: true,
		RemoveComments:     true,
	}
}
