package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLPlugin renders the page template with the bundled assets injected.
type HTMLPlugin struct {
	Options HTMLOptions
}

func (p *HTMLPlugin) Kind() PluginKind { return KindHTML }

func (p *HTMLPlugin) Apply(h *Hooks) {
	h.AfterEmit(KindHTML, func(_ context.Context, comp *Compilation) error {
		tmpl, err := os.ReadFile(p.Options.Template)
		if err != nil {
			return errors.Wrap(err, "read template")
		}
		var stylesheets []string
		if comp.css.inject {
			stylesheets = comp.Assets.Stylesheets
		}
		page, err := RenderPage(tmpl, PageAssets{
			PublicPath:  comp.Config.Output.PublicPath,
			Script:      comp.Assets.Script,
			Stylesheets: stylesheets,
		}, p.Options)
		if err != nil {
			return err
		}
		name := p.Options.Filename
		if name == "" {
			name = "index.html"
		}
		if err := os.WriteFile(filepath.Join(comp.StageDir, name), page, 0o644); err != nil {
			return err
		}
		comp.Assets.Other = append(comp.Assets.Other, name)
		return nil
	})
}

type PageAssets struct {
	PublicPath  string
	Script      string
	Stylesheets []string
}

// RenderPage injects stylesheet links at the end of <head> and the script
// tag at the end of <body>.
func RenderPage(tmpl []byte, assets PageAssets, opts HTMLOptions) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}
	if opts.Inject {
		head := findElement(doc, atom.Head)
		body := findElement(doc, atom.Body)
		if head == nil || body == nil {
			return nil, errors.New("template has no head or body")
		}
		for _, sheet := range assets.Stylesheets {
			head.AppendChild(element(atom.Link,
				html.Attribute{Key: "rel", Val: "stylesheet"},
				html.Attribute{Key: "href", Val: assets.PublicPath + sheet},
			))
		}
		if assets.Script != "" {
			body.AppendChild(element(atom.Script,
				html.Attribute{Key: "type", Val: "module"},
				html.Attribute{Key: "src", Val: assets.PublicPath + assets.Script},
			))
		}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	if !opts.Minify {
		return buf.Bytes(), nil
	}
	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{KeepDocumentTags: true, KeepEndTags: true})
	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "minify")
	}
	return out, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
