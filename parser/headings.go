package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Headings are the two title lines of a lesson page.
type Headings struct {
	Small string
	Big   string
}

// Headings extracts both headings. Missing elements give empty strings.
func (d *Document) Headings() Headings {
	return Headings{
		Small: d.SmallHeading(),
		Big:   d.BigHeading(),
	}
}

// SmallHeading is the text of the first p.title-number.
func (d *Document) SmallHeading() string {
	return firstText(d.doc.FindMatcher(smallHeadSel))
}

// BigHeading is the text of the first h1.
func (d *Document) BigHeading() string {
	return firstText(d.doc.FindMatcher(bigHeadingSel))
}

// NormalizeText collapses whitespace runs into single spaces and trims the ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return nodeText(sel.Get(0))
}

// nodeText joins the visible text nodes under n with single spaces.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := NormalizeText(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
