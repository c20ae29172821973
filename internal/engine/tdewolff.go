package engine

import (
	"io"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const (
	cssMimetype  = "text/css"
	htmlMimetype = "text/html"
	jsMimetype   = "application/javascript"
)

var jsMimetypes = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

type cssEngine struct {
	m *minify.M
}

// NewCSS creates a CSS engine.
func NewCSS(options CSSOptions) CSS {
	m := minify.New()
	m.Add(cssMimetype, &css.Minifier{
		Precision: options.Precision,
		KeepCSS2:  options.KeepCSS2,
	})

	return &cssEngine{m: m}
}

func (e *cssEngine) Minify(src string) (string, []error) {
	styles, err := e.m.String(cssMimetype, src)
	if err != nil {
		return "", []error{err}
	}

	return styles, nil
}

type jsEngine struct {
	m *minify.M
}

// NewJS creates a JS engine.
func NewJS(options JSOptions) JS {
	m := minify.New()
	m.Add(jsMimetype, &js.Minifier{
		Precision:    options.Precision,
		KeepVarNames: options.KeepVarNames,
	})

	return &jsEngine{m: m}
}

func (e *jsEngine) Minify(src string) (string, error) {
	return e.m.String(jsMimetype, src)
}

type htmlEngine struct {
	m *minify.M
}

// NewHTML creates an HTML engine whose embedded CSS and JS are handed to the
// given callbacks. Attribute styles arrive with OriginInline.
func NewHTML(options HTMLOptions, embedded Embedded) HTML {
	m := minify.New()
	m.Add(htmlMimetype, &html.Minifier{
		KeepComments:        !options.RemoveComments,
		KeepWhitespace:      !options.CollapseWhitespace,
		KeepDocumentTags:    !options.RemoveOptionalTags,
		KeepEndTags:         !options.RemoveOptionalTags,
		KeepQuotes:          !options.RemoveAttributeQuotes,
		KeepDefaultAttrVals: !options.RemoveRedundantAttributes,
	})

	if embedded.CSS != nil {
		m.AddFunc(cssMimetype, cssBridge(embedded.CSS))
	}
	if embedded.JS != nil {
		m.AddFuncRegexp(jsMimetypes, jsBridge(embedded.JS))
	}

	return &htmlEngine{m: m}
}

// NewHTMLFactory returns an HTMLFactory bound to options.
func NewHTMLFactory(options HTMLOptions) HTMLFactory {
	return func(embedded Embedded) HTML {
		return NewHTML(options, embedded)
	}
}

func (e *htmlEngine) Minify(src string) (string, error) {
	return e.m.String(htmlMimetype, src)
}

func cssBridge(fn func(string, Origin) string) minify.MinifierFunc {
	return func(_ *minify.M, w io.Writer, r io.Reader, params map[string]string) error {
		content, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, fn(string(content), originFromParams(params)))
		return err
	}
}

func jsBridge(fn func(string) string) minify.MinifierFunc {
	return func(_ *minify.M, w io.Writer, r io.Reader, _ map[string]string) error {
		content, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, fn(string(content)))
		return err
	}
}

// originFromParams maps the mimetype parameters the HTML minifier attaches
// to embedded CSS onto an Origin. The minifier never forwards media queries,
// so OriginMedia is not produced here.
func originFromParams(params map[string]string) Origin {
	if params == nil {
		return OriginStylesheet
	}
	if params["inline"] == "1" {
		return OriginInline
	}

	return OriginStylesheet
}
