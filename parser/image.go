package parser

import (
	"log/slog"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// junkSubstrings mark icons, logos, sprites and spacer images.
var junkSubstrings = []string{
	"sprite", "icon", "icons", "logo", "favicon", "spinner", "loading",
	"placeholder", "transparent", "blank", "1x1", "pixel",
}

// ImageSelector picks the top illustrative image of a page.
type ImageSelector struct {
	base     *url.URL
	seenSize int
}

// NewImageSelector resolves candidates against base. seenSize bounds the dedupe cache;
// an evicted URL is simply evaluated again.
func NewImageSelector(base *url.URL, seenSize int) *ImageSelector {
	if seenSize <= 0 {
		seenSize = 1024
	}
	return &ImageSelector{base: base, seenSize: seenSize}
}

// Select returns the absolute URL of the first acceptable candidate, or "".
// main/article regions are searched first; the whole page is searched only when they
// yield nothing.
func (s *ImageSelector) Select(d *Document) string {
	seen, err := lru.New[string, struct{}](s.seenSize)
	if err != nil {
		slog.Debug("image seen cache disabled", slog.Any("error", err))
		seen = nil
	}

	scopes := d.scoped
	if len(scopes) == 0 {
		scopes = []scope{d.whole}
	}
	for _, sc := range scopes {
		if found := s.scan(sc, seen); found != "" {
			return found
		}
	}
	return s.scan(d.whole, seen)
}

func (s *ImageSelector) scan(sc scope, seen *lru.Cache[string, struct{}]) string {
	for _, el := range sc {
		candidate := s.candidate(el)
		if candidate == "" {
			continue
		}
		if seen != nil {
			if seen.Contains(candidate) {
				continue
			}
			seen.Add(candidate, struct{}{})
		}
		if IsJunkImage(candidate) {
			slog.Debug("skipping junk image", slog.String("url", candidate), slog.String("kind", el.Kind.String()))
			continue
		}
		return candidate
	}
	return ""
}

func (s *ImageSelector) candidate(el Element) string {
	switch el.Kind {
	case KindPicture:
		return s.fromPicture(el)
	case KindFigureImage, KindImage:
		return s.fromImage(el.Image)
	default:
		return ""
	}
}

func (s *ImageSelector) fromPicture(el Element) string {
	for _, srcset := range el.Sources {
		srcset = strings.TrimSpace(srcset)
		if srcset == "" {
			continue
		}
		if best := LargestFromSrcset(srcset); best != "" {
			return ResolveURL(s.base, best)
		}
		if first := FirstFromSrcset(srcset); first != "" {
			return ResolveURL(s.base, first)
		}
	}
	return s.fromImage(el.Image)
}

func (s *ImageSelector) fromImage(img *ImageAttrs) string {
	if img == nil {
		return ""
	}

	srcset := strings.TrimSpace(img.Srcset)
	if srcset == "" {
		srcset = strings.TrimSpace(img.DataSrcset)
	}
	if best := LargestFromSrcset(srcset); best != "" {
		return ResolveURL(s.base, best)
	}

	for _, src := range []string{img.Src, img.DataSrc, img.DataLazySrc, img.DataOriginal} {
		if src = strings.TrimSpace(src); src != "" {
			return ResolveURL(s.base, src)
		}
	}
	return ""
}

// ResolveURL makes ref absolute against base. Unparsable references resolve to "".
func ResolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

// IsJunkImage reports whether u is empty, inline, an SVG, or looks like an icon,
// logo, sprite or placeholder.
func IsJunkImage(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	if lower == "" {
		return true
	}
	if strings.HasPrefix(lower, "data:image") {
		return true
	}
	if strings.HasSuffix(lower, ".svg") || strings.Contains(lower, ".svg?") {
		return true
	}
	for _, junk := range junkSubstrings {
		if strings.Contains(lower, junk) {
			return true
		}
	}
	return false
}
