package minifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sitemin/internal/engine"
	"github.com/conneroisu/sitemin/internal/logging"
)

type fakeCSS struct {
	fn    func(src string) (string, []error)
	calls []string
}

func (f *fakeCSS) Minify(src string) (string, []error) {
	f.calls = append(f.calls, src)
	return f.fn(src)
}

type fakeJS struct {
	fn func(src string) (string, error)
}

func (f *fakeJS) Minify(src string) (string, error) { return f.fn(src) }

// fakeHTML calls the embedded callbacks for every argument it was built with.
type fakeHTML struct {
	embedded engine.Embedded
	err      error
}

func (f *fakeHTML) Minify(src string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "<style>" + f.embedded.CSS(src, engine.OriginStylesheet) + "</style>" +
		"<script>" + f.embedded.JS(src) + "</script>", nil
}

type warnRecorder struct {
	logging.Logger
	mu    sync.Mutex
	warns []error
}

func (w *warnRecorder) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warns = append(w.warns, err)
}

func (w *warnRecorder) WithComponent(string) logging.Logger { return w }

func newRecorder() *warnRecorder {
	return &warnRecorder{Logger: logging.NewNopLogger()}
}

func identityCSS() *fakeCSS {
	return &fakeCSS{fn: func(src string) (string, []error) {
		return strings.ReplaceAll(src, " ", ""), nil
	}}
}

func identityJS() *fakeJS {
	return &fakeJS{fn: func(src string) (string, error) { return strings.TrimSpace(src), nil }}
}

func htmlFactory(err error) engine.HTMLFactory {
	return func(embedded engine.Embedded) engine.HTML {
		return &fakeHTML{embedded: embedded, err: err}
	}
}

func TestCSSWrapping(t *testing.T) {
	testCases := []struct {
		name      string
		origin    engine.Origin
		input     string
		engineIn  string
		engineOut string
		want      string
	}{
		{"stylesheet", engine.OriginStylesheet, "a { top: 0 }", "a { top: 0 }", "a{top:0}", "a{top:0}"},
		{"inline", engine.OriginInline, "color: #fff;", "*{color: #fff;}", "*{color:#fff}", "color:#fff"},
		{"inline spans newlines", engine.OriginInline, "a:1;\nb:2", "*{a:1;\nb:2}", "*{a:1;\nb:2}", "a:1;\nb:2"},
		{"inline unexpected output", engine.OriginInline, "x", "*{x}", "garbage", "garbage"},
		{"media", engine.OriginMedia, "screen and (min-width: 1px)", "@media screen and (min-width: 1px){a{top:0}}",
			"@media screen and (min-width:1px){a{top:0}}", "screen and (min-width:1px)"},
		{"media unexpected output", engine.OriginMedia, "print", "@media print{a{top:0}}", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			css := &fakeCSS{fn: func(string) (string, []error) { return tc.engineOut, nil }}
			set := NewWithEngines(css, identityJS(), htmlFactory(nil), nil)

			got := set.CSS(tc.input, tc.origin)
			assert.Equal(t, tc.want, got)
			require.Len(t, css.calls, 1)
			assert.Equal(t, tc.engineIn, css.calls[0])
		})
	}
}

func TestCSSErrorFallback(t *testing.T) {
	recorder := newRecorder()
	css := &fakeCSS{fn: func(string) (string, []error) {
		return "partial", []error{errors.New("first"), errors.New("second")}
	}}
	set := NewWithEngines(css, identityJS(), htmlFactory(nil), recorder)

	assert.Equal(t, "a { top: 0 }", set.CSS("a { top: 0 }", engine.OriginStylesheet))
	assert.Equal(t, "*{color: red}", set.CSS("color: red", engine.OriginInline))
	assert.Equal(t, "@media print{a{top:0}}", set.CSS("print", engine.OriginMedia))
	assert.Len(t, recorder.warns, 6)
	assert.Equal(t, int64(3), set.Fallbacks())
}

func TestJSErrorFallback(t *testing.T) {
	recorder := newRecorder()
	js := &fakeJS{fn: func(string) (string, error) { return "", errors.New("unexpected token") }}
	set := NewWithEngines(identityCSS(), js, htmlFactory(nil), recorder)

	assert.Equal(t, "let = ;", set.JS("let = ;"))
	require.Len(t, recorder.warns, 1)
	assert.EqualError(t, recorder.warns[0], "unexpected token")
	assert.Equal(t, int64(1), set.Fallbacks())
}

func TestHTMLUsesAdapters(t *testing.T) {
	set := NewWithEngines(identityCSS(), identityJS(), htmlFactory(nil), nil)

	out, err := set.HTML(" a b ")
	require.NoError(t, err)
	assert.Equal(t, "<style>ab</style><script>a b</script>", out)
}

func TestHTMLEmbeddedErrorsAreAbsorbed(t *testing.T) {
	css := &fakeCSS{fn: func(string) (string, []error) { return "", []error{errors.New("css")} }}
	js := &fakeJS{fn: func(string) (string, error) { return "", errors.New("js") }}
	set := NewWithEngines(css, js, htmlFactory(nil), newRecorder())

	out, err := set.HTML("x")
	require.NoError(t, err)
	assert.Equal(t, "<style>x</style><script>x</script>", out)
}

func TestHTMLEngineErrorPropagates(t *testing.T) {
	set := NewWithEngines(identityCSS(), identityJS(), htmlFactory(errors.New("malformed")), nil)

	_, err := set.HTML("<")
	assert.EqualError(t, err, "malformed")
}

func TestDefaultEngines(t *testing.T) {
	set := New(Options{HTML: engine.DefaultHTMLOptions()}, nil)

	t.Run("stylesheet", func(t *testing.T) {
		got := set.CSS(" body { color: #fff; background-color: #000; } h1 { font-size: 16px; } ", engine.OriginStylesheet)
		assert.Equal(t, "body{color:#fff;background-color:#000}h1{font-size:16px}", got)
	})

	t.Run("inline round trip", func(t *testing.T) {
		got := set.CSS("color: #fff; font-size: 16px;", engine.OriginInline)
		assert.Equal(t, "color:#fff;font-size:16px", got)
	})

	t.Run("media round trip", func(t *testing.T) {
		assert.Equal(t, "screen", set.CSS("screen", engine.OriginMedia))
	})

	t.Run("js error keeps source", func(t *testing.T) {
		assert.Equal(t, "var a = ;", set.JS("var a = ;"))
	})

	t.Run("html inline style", func(t *testing.T) {
		got, err := set.HTML(` <html> <body> <h1 style=" color: #fff; font-size: 16px; ">Hello World!</h1> </body> </html> `)
		require.NoError(t, err)
		assert.Equal(t, `<html><body><h1 style="color:#fff;font-size:16px">Hello World!</h1></body></html>`, got)
	})

	t.Run("html style tag", func(t *testing.T) {
		got, err := set.HTML(` <html> <head> <style> body { color: #fff; background-color: #000; } h1 { font-size: 16px; } </style> </head> </html> `)
		require.NoError(t, err)
		assert.Contains(t, got, `<style>body{color:#fff;background-color:#000}h1{font-size:16px}</style>`)
	})

	t.Run("html script tag", func(t *testing.T) {
		got, err := set.HTML(` <html> <body> <script> const a = "test text"; let b = a + " more"; </script> </body> </html> `)
		require.NoError(t, err)
		assert.Contains(t, got, `<script>const a="test text";let b=a+" more"`)
	})
}

func TestCSSIdempotent(t *testing.T) {
	set := New(Options{}, nil)

	once := set.CSS(" a { color : red ; } ", engine.OriginStylesheet)
	assert.Equal(t, once, set.CSS(once, engine.OriginStylesheet))
}
