package builtin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sitemin/internal/engine"
	siteminerrors "github.com/conneroisu/sitemin/internal/errors"
	"github.com/conneroisu/sitemin/internal/minifier"
	"github.com/conneroisu/sitemin/internal/plugins"
	"github.com/conneroisu/sitemin/internal/types"
)

func newPlugin(t *testing.T, options map[string]interface{}) *MinifyPlugin {
	t.Helper()

	mp := NewMinifyPlugin(nil)
	require.NoError(t, mp.Initialize(context.Background(), plugins.PluginConfig{
		Name:    "minify",
		Enabled: true,
		Config:  options,
	}))

	return mp
}

func process(t *testing.T, mp *MinifyPlugin, files ...*types.File) {
	t.Helper()

	out, err := mp.ProcessFiles(context.Background(), files)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMinifyPluginScenarios(t *testing.T) {
	mp := newPlugin(t, nil)

	css := types.NewTextFile("styles/site.css", " body { color: #fff; background-color: #000; } h1 { font-size: 16px; } ")
	html := types.NewTextFile("index.html", " <html> <body> <h1>Hello World!</h1> </body> </html>")
	js := types.NewTextFile("app.js", ` const a = "test text"; let b = a + " more"; `)
	inline := types.NewTextFile("inline.html",
		` <html> <body> <h1 style=" color: #fff; font-size: 16px; ">Hello World!</h1> </body> </html> `)
	text := types.NewTextFile("a.txt", " keep   me ")

	process(t, mp, css, html, js, inline, text)

	assert.Equal(t, "body{color:#fff;background-color:#000}h1{font-size:16px}", css.Content.Data)
	assert.Equal(t, "<html><body><h1>Hello World!</h1></body></html>", html.Content.Data)
	assert.Equal(t, `const a="test text";let b=a+" more"`, js.Content.Data)
	assert.Equal(t, `<html><body><h1 style="color:#fff;font-size:16px">Hello World!</h1></body></html>`, inline.Content.Data)
	assert.Equal(t, " keep   me ", text.Content.Data)
}

func TestMinifyPluginCustomPatterns(t *testing.T) {
	mp := newPlugin(t, map[string]interface{}{
		"patterns_css": "*.bcss",
	})

	custom := types.NewTextFile("theme.bcss", "a { top: 0 }")
	plain := types.NewTextFile("theme.css", "a { top: 0 }")
	text := types.NewTextFile("a.txt", "a { top: 0 }")

	process(t, mp, custom, plain, text)

	assert.Equal(t, "a{top:0}", custom.Content.Data)
	assert.Equal(t, "a { top: 0 }", plain.Content.Data)
	assert.Equal(t, "a { top: 0 }", text.Content.Data)
}

func TestMinifyPluginPrecedence(t *testing.T) {
	mp := newPlugin(t, map[string]interface{}{
		"patterns_css":  []interface{}{"*.page"},
		"patterns_html": []interface{}{"*.page", "*.html"},
		"patterns_js":   []interface{}{"*.page"},
	})

	assert.Equal(t, CategoryCSS, mp.Classify("home.page"))
	assert.Equal(t, CategoryHTML, mp.Classify("home.html"))
	assert.Equal(t, CategoryNone, mp.Classify("home.js"))

	file := types.NewTextFile("home.page", "p { color : red ; }")
	process(t, mp, file)
	assert.Equal(t, "p{color:red}", file.Content.Data)
}

func TestMinifyPluginDisabledCategory(t *testing.T) {
	mp := newPlugin(t, map[string]interface{}{
		"patterns_js": nil,
	})

	js := types.NewTextFile("app.js", " let  a = 1 ; ")
	process(t, mp, js)

	assert.Equal(t, " let  a = 1 ; ", js.Content.Data)
	assert.Equal(t, CategoryNone, mp.Classify("app.js"))
}

func TestMinifyPluginPatternOptions(t *testing.T) {
	mp := newPlugin(t, map[string]interface{}{
		"patterns_css":    []interface{}{"assets/**", "**.css"},
		"pattern_options": map[string]interface{}{"all": true, "globstar": true},
	})

	assert.Equal(t, CategoryCSS, mp.Classify("assets/site.css"))
	assert.Equal(t, CategoryNone, mp.Classify("site.css"))
	assert.Equal(t, CategoryNone, mp.Classify("assets/site.txt"))
}

func TestMinifyPluginNonStringContent(t *testing.T) {
	mp := newPlugin(t, nil)

	raw := []byte("a { top: 0 }")
	file := types.NewBinaryFile("site.css", raw)
	process(t, mp, file)

	assert.Equal(t, []byte("a { top: 0 }"), file.Content.Raw)
	assert.Equal(t, types.ContentTypeBytes, file.Content.Type)
}

func TestMinifyPluginMissingContent(t *testing.T) {
	mp := newPlugin(t, nil)

	first := types.NewTextFile("a.css", "a { top: 0 }")
	missing := &types.File{Path: "b.css"}
	last := types.NewTextFile("c.css", "c { top: 0 }")

	_, err := mp.ProcessFiles(context.Background(), []*types.File{first, missing, last})
	require.Error(t, err)
	assert.True(t, siteminerrors.IsContractError(err))
	assert.Contains(t, err.Error(), "b.css")

	assert.Equal(t, "a{top:0}", first.Content.Data)
	assert.Equal(t, "c { top: 0 }", last.Content.Data)
}

func TestMinifyPluginEngineFallback(t *testing.T) {
	mp := newPlugin(t, nil)

	broken := types.NewTextFile("broken.js", "var a = ;")
	after := types.NewTextFile("after.css", "a { top: 0 }")
	process(t, mp, broken, after)

	assert.Equal(t, "var a = ;", broken.Content.Data)
	assert.Equal(t, "a{top:0}", after.Content.Data)

	health := mp.Health()
	assert.Equal(t, plugins.HealthStatusDegraded, health.Status)
	assert.Equal(t, int64(1), health.Metrics["engine_fallbacks"])
}

type failingHTML struct{}

func (failingHTML) Minify(string) (string, error) {
	return "", errors.New("unexpected end of document")
}

type passCSS struct{}

func (passCSS) Minify(src string) (string, []error) { return src, nil }

type passJS struct{}

func (passJS) Minify(src string) (string, error) { return src, nil }

func TestMinifyPluginHTMLFailureAborts(t *testing.T) {
	mp := newPlugin(t, nil)
	mp.set = minifier.NewWithEngines(passCSS{}, passJS{}, func(engine.Embedded) engine.HTML {
		return failingHTML{}
	}, nil)

	page := types.NewTextFile("index.html", "<p>")
	after := types.NewTextFile("z.css", "a { top: 0 }")

	_, err := mp.ProcessFiles(context.Background(), []*types.File{page, after})
	require.Error(t, err)
	assert.True(t, siteminerrors.IsEngineError(err))
	assert.Contains(t, err.Error(), "unexpected end of document")
	assert.Equal(t, "<p>", page.Content.Data)
	assert.Equal(t, "a { top: 0 }", after.Content.Data)

	health := mp.Health()
	assert.Equal(t, plugins.HealthStatusUnhealthy, health.Status)
	assert.Contains(t, health.Error, "index.html")
	assert.Contains(t, health.Error, "unexpected end of document")
}

func TestMinifyPluginInvalidConfig(t *testing.T) {
	testCases := []struct {
		name    string
		options map[string]interface{}
	}{
		{"pattern is not a string", map[string]interface{}{"patterns_css": 42}},
		{"empty pattern list", map[string]interface{}{"patterns_html": []interface{}{}}},
		{"blank pattern", map[string]interface{}{"patterns_js": "  "}},
		{"unknown option", map[string]interface{}{"patternsCSS": "*.css"}},
		{"all is not boolean", map[string]interface{}{"pattern_options": map[string]interface{}{"all": "yes"}}},
		{"all is on", map[string]interface{}{"pattern_options": map[string]interface{}{"all": "on"}}},
		{"all is y", map[string]interface{}{"pattern_options": map[string]interface{}{"all": "y"}}},
		{"bundle bool is a string", map[string]interface{}{"html": map[string]interface{}{"collapse_whitespace": "yes"}}},
		{"bundle is not a mapping", map[string]interface{}{"html": "fast"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mp := NewMinifyPlugin(nil)
			err := mp.Initialize(context.Background(), plugins.PluginConfig{Config: tc.options})
			require.Error(t, err)
			assert.True(t, siteminerrors.IsConfigError(err), err.Error())

			_, err = mp.ProcessFiles(context.Background(), nil)
			assert.Error(t, err, "an unconfigured plugin must refuse to run")
		})
	}
}

func TestMinifyPluginParallelMatchesSequential(t *testing.T) {
	build := func() []*types.File {
		var files []*types.File
		for i := 0; i < 40; i++ {
			files = append(files,
				types.NewTextFile(fmt.Sprintf("css/%d.css", i), fmt.Sprintf(" .c%d { margin : %dpx ; } ", i, i)),
				types.NewTextFile(fmt.Sprintf("js/%d.js", i), fmt.Sprintf(" let v%d = %d ; ", i, i)),
				types.NewTextFile(fmt.Sprintf("%d.html", i), fmt.Sprintf(" <p> %d </p> ", i)),
				types.NewTextFile(fmt.Sprintf("%d.txt", i), " untouched "),
			)
		}
		return files
	}

	sequential := build()
	process(t, newPlugin(t, nil), sequential...)

	parallel := build()
	mp := NewMinifyPlugin(nil)
	require.NoError(t, mp.Initialize(context.Background(), plugins.PluginConfig{
		Settings: plugins.PluginSettings{ResourceLimits: plugins.ResourceLimits{MaxGoroutines: 8}},
	}))
	process(t, mp, parallel...)

	require.Len(t, parallel, len(sequential))
	for i := range sequential {
		assert.Equal(t, sequential[i].Path, parallel[i].Path)
		assert.Equal(t, sequential[i].Content.Data, parallel[i].Content.Data)
	}
}

func TestMinifyPluginParallelContractError(t *testing.T) {
	mp := NewMinifyPlugin(nil)
	require.NoError(t, mp.Initialize(context.Background(), plugins.PluginConfig{
		Settings: plugins.PluginSettings{ResourceLimits: plugins.ResourceLimits{MaxGoroutines: 4}},
	}))

	files := []*types.File{
		types.NewTextFile("a.css", "a { top: 0 }"),
		{Path: "b.css"},
		types.NewTextFile("c.css", "c { top: 0 }"),
	}
	_, err := mp.ProcessFiles(context.Background(), files)
	require.Error(t, err)
	assert.True(t, siteminerrors.IsContractError(err))
}

func TestMinifyPluginHealth(t *testing.T) {
	mp := NewMinifyPlugin(nil)
	assert.Equal(t, plugins.HealthStatusUnknown, mp.Health().Status)

	mp = newPlugin(t, map[string]interface{}{"patterns_html": nil})
	process(t, mp,
		types.NewTextFile("a.css", "a { top: 0 }"),
		types.NewTextFile("b.js", "let b = 1;"),
		types.NewTextFile("c.html", "<p> c </p>"),
		types.NewBinaryFile("d.css", []byte{0xff}),
	)

	health := mp.Health()
	assert.Equal(t, plugins.HealthStatusHealthy, health.Status)
	assert.Equal(t, int64(2), health.Metrics["files_processed"])
	assert.Equal(t, int64(1), health.Metrics["css_minified"])
	assert.Equal(t, int64(0), health.Metrics["html_minified"])
	assert.Equal(t, int64(1), health.Metrics["js_minified"])
	assert.Equal(t, int64(2), health.Metrics["files_skipped"])
	assert.Equal(t, "<disabled>", health.Metrics["patterns_html"])
	assert.Equal(t, "any(*.css)", health.Metrics["patterns_css"])

	require.NoError(t, mp.Shutdown(context.Background()))
	assert.Equal(t, plugins.HealthStatusUnknown, mp.Health().Status)
}

func TestMinifyPluginWithManager(t *testing.T) {
	ctx := context.Background()
	pm := plugins.NewPluginManager(nil)
	mp := NewMinifyPlugin(nil)

	require.NoError(t, pm.RegisterPlugin(ctx, mp, plugins.PluginConfig{
		Name:    mp.Name(),
		Enabled: true,
		Config:  map[string]interface{}{"patterns_css": "*.bcss"},
	}))

	files := []*types.File{types.NewTextFile("x.bcss", "x { top: 0 }")}
	out, err := pm.ProcessFiles(ctx, files)
	require.NoError(t, err)
	assert.Equal(t, "x{top:0}", out[0].Content.Data)

	err = plugins.NewPluginManager(nil).RegisterPlugin(ctx, NewMinifyPlugin(nil), plugins.PluginConfig{
		Config: map[string]interface{}{"patterns_css": 1},
	})
	assert.Error(t, err)
}
