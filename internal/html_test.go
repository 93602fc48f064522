package internal_test

import (
	"strings"
	"testing"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/stretchr/testify/require"
)

func TestRenderPage_Inject(t *testing.T) {
	page, err := internal.RenderPage([]byte(pageTemplate), internal.PageAssets{
		PublicPath:  "/todomvc/",
		Script:      "index.js",
		Stylesheets: []string{"index.css"},
	}, internal.HTMLOptions{Inject: true})
	require.NoError(t, err)

	out := string(page)
	link := strings.Index(out, `<link rel="stylesheet" href="/todomvc/index.css"/>`)
	headEnd := strings.Index(out, "</head>")
	script := strings.Index(out, `<script type="module" src="/todomvc/index.js"></script>`)
	bodyEnd := strings.Index(out, "</body>")
	require.True(t, link > 0 && link < headEnd, out)
	require.True(t, script > strings.Index(out, `<section class="app">`) && script < bodyEnd, out)
}

func TestRenderPage_Minify(t *testing.T) {
	page, err := internal.RenderPage([]byte(pageTemplate), internal.PageAssets{
		PublicPath: "/todomvc/",
		Script:     "index.js",
	}, internal.HTMLOptions{Inject: true, Minify: true})
	require.NoError(t, err)

	out := string(page)
	require.Less(t, len(out), len(pageTemplate)+len(`<script type="module" src="/todomvc/index.js"></script>`))
	require.NotContains(t, out, "\n  ")
	require.Contains(t, out, "/todomvc/index.js")
	require.Contains(t, out, "<title>demo</title>")
}

func TestRenderPage_NoInject(t *testing.T) {
	page, err := internal.RenderPage([]byte(pageTemplate), internal.PageAssets{
		PublicPath: "/todomvc/",
		Script:     "index.js",
	}, internal.HTMLOptions{})
	require.NoError(t, err)
	require.NotContains(t, string(page), "index.js")
}

func TestRenderPage_FragmentGetsDocument(t *testing.T) {
	page, err := internal.RenderPage([]byte(`<p>hi</p>`), internal.PageAssets{
		PublicPath: "/x/",
		Script:     "index.js",
	}, internal.HTMLOptions{Inject: true})
	require.NoError(t, err)
	require.Contains(t, string(page), `<body><p>hi</p><script type="module" src="/x/index.js"></script></body>`)
}
