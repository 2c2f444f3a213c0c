// Package parser turns a manual page into headings and a representative image.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	contentRoots  = cascadia.MustCompile("main, article")
	pictureSel    = cascadia.MustCompile("picture")
	figureImgSel  = cascadia.MustCompile("figure img")
	imgSel        = cascadia.MustCompile("img")
	sourceSel     = cascadia.MustCompile("source")
	smallHeadSel  = cascadia.MustCompile("p.title-number")
	bigHeadingSel = cascadia.MustCompile("h1")
)

// Kind identifies how an image candidate was found.
type Kind int

const (
	// KindPicture is a <picture> group with <source srcset> children.
	KindPicture Kind = iota + 1
	// KindFigureImage is an <img> wrapped in a <figure>.
	KindFigureImage
	// KindImage is any <img>.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPicture:
		return "picture"
	case KindFigureImage:
		return "figure_img"
	case KindImage:
		return "img"
	default:
		return "unknown"
	}
}

// ImageAttrs are the URL-bearing attributes of an <img>.
type ImageAttrs struct {
	Srcset       string
	DataSrcset   string
	Src          string
	DataSrc      string
	DataLazySrc  string
	DataOriginal string
}

// Element is one image candidate. Sources is only set for KindPicture and holds the
// srcset of every nested <source> in document order. Image is the element itself for
// image kinds, or the first nested <img> of a picture (nil when there is none).
type Element struct {
	Kind    Kind
	Sources []string
	Image   *ImageAttrs
}

// scope lists candidates pass by pass: pictures, then figure images, then images,
// each in document order.
type scope []Element

// Document is a parsed manual page. It is not modified after Parse.
type Document struct {
	doc    *goquery.Document
	scoped []scope
	whole  scope
}

// Parse reads an HTML page and resolves its image candidates.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{
		doc:   doc,
		whole: buildScope(doc.Selection),
	}
	doc.FindMatcher(contentRoots).Each(func(_ int, root *goquery.Selection) {
		d.scoped = append(d.scoped, buildScope(root))
	})
	return d, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// Scoped reports whether the page has main or article regions.
func (d *Document) Scoped() bool {
	return len(d.scoped) > 0
}

func buildScope(root *goquery.Selection) scope {
	var out scope
	root.FindMatcher(pictureSel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, pictureElement(s))
	})
	root.FindMatcher(figureImgSel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{Kind: KindFigureImage, Image: imageAttrs(s)})
	})
	root.FindMatcher(imgSel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{Kind: KindImage, Image: imageAttrs(s)})
	})
	return out
}

func pictureElement(s *goquery.Selection) Element {
	el := Element{Kind: KindPicture}
	s.FindMatcher(sourceSel).Each(func(_ int, src *goquery.Selection) {
		el.Sources = append(el.Sources, src.AttrOr("srcset", ""))
	})
	if img := s.FindMatcher(imgSel).First(); img.Length() > 0 {
		el.Image = imageAttrs(img)
	}
	return el
}

func imageAttrs(s *goquery.Selection) *ImageAttrs {
	return &ImageAttrs{
		Srcset:       s.AttrOr("srcset", ""),
		DataSrcset:   s.AttrOr("data-srcset", ""),
		Src:          s.AttrOr("src", ""),
		DataSrc:      s.AttrOr("data-src", ""),
		DataLazySrc:  s.AttrOr("data-lazy-src", ""),
		DataOriginal: s.AttrOr("data-original", ""),
	}
}
