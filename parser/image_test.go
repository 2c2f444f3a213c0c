package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBase = "https://media.example.org"

func selectFrom(t *testing.T, page string) string {
	t.Helper()

	doc, err := ParseString(page)
	require.NoError(t, err)
	base, err := url.Parse(testBase)
	require.NoError(t, err)
	return NewImageSelector(base, 64).Select(doc)
}

func TestSelectPrefersPictureOverEarlierImage(t *testing.T) {
	page := `<html><body><main>
		<img src="/images/early-photo.jpg">
		<p>text</p>
		<picture>
			<source srcset="/images/lesson-small.jpg 320w, /images/lesson-large.jpg 1280w, /images/lesson-mid.jpg 640w">
			<img src="/images/lesson-default.jpg">
		</picture>
	</main></body></html>`

	require.Equal(t, testBase+"/images/lesson-large.jpg", selectFrom(t, page))
}

func TestSelectPrefersFigureImageOverEarlierImage(t *testing.T) {
	page := `<html><body><article>
		<img src="/images/inline.jpg">
		<figure><img src="/images/figure.jpg"><figcaption>Caption</figcaption></figure>
	</article></body></html>`

	require.Equal(t, testBase+"/images/figure.jpg", selectFrom(t, page))
}

func TestSelectIgnoresHeaderChromeWhenMainHasImage(t *testing.T) {
	page := `<html><body>
		<header><img src="/images/header-banner.jpg"></header>
		<main><img src="/images/lesson.jpg"></main>
	</body></html>`

	require.Equal(t, testBase+"/images/lesson.jpg", selectFrom(t, page))
}

func TestSelectFallsBackToWholeDocument(t *testing.T) {
	page := `<html><body>
		<div class="hero"><img src="/images/hero.jpg"></div>
		<main><img src="/images/site-logo.png"><img src="data:image/gif;base64,R0lGODlhAQABAAAAACw="></main>
	</body></html>`

	require.Equal(t, testBase+"/images/hero.jpg", selectFrom(t, page))
}

func TestSelectNoImages(t *testing.T) {
	page := `<html><body><main><h1>Lesson 5</h1><p>No pictures here.</p></main></body></html>`

	require.Equal(t, "", selectFrom(t, page))
}

func TestSelectAllJunk(t *testing.T) {
	page := `<html><body>
		<img src="/assets/favicon.ico">
		<img src="/assets/spinner.gif">
		<img src="/assets/arrow.svg">
		<img src="/assets/arrow.SVG?v=2">
		<img src="/assets/1x1.gif">
		<img src="data:image/png;base64,AAAA">
	</body></html>`

	require.Equal(t, "", selectFrom(t, page))
}

func TestSelectSkipsJunkAndContinues(t *testing.T) {
	page := `<html><body><main>
		<img src="/icons/share.png">
		<img src="/images/placeholder.jpg">
		<img src="/images/real.jpg">
	</main></body></html>`

	require.Equal(t, testBase+"/images/real.jpg", selectFrom(t, page))
}

func TestSelectImageAttributePriority(t *testing.T) {
	tests := []struct {
		name     string
		img      string
		expected string
	}{
		{
			name:     "srcset beats src",
			img:      `<img src="/a.jpg" srcset="/b.jpg 100w, /c.jpg 900w">`,
			expected: testBase + "/c.jpg",
		},
		{
			name:     "data-srcset when srcset missing",
			img:      `<img src="/a.jpg" data-srcset="/d.jpg 300w, /e.jpg 200w">`,
			expected: testBase + "/d.jpg",
		},
		{
			name:     "srcset without widths falls back to src",
			img:      `<img src="/a.jpg" srcset="/b.jpg, /c.jpg">`,
			expected: testBase + "/a.jpg",
		},
		{
			name:     "data-src",
			img:      `<img data-src="/lazy/one.jpg" data-original="/lazy/two.jpg">`,
			expected: testBase + "/lazy/one.jpg",
		},
		{
			name:     "data-lazy-src",
			img:      `<img src="" data-lazy-src="/lazy/three.jpg" data-original="/lazy/two.jpg">`,
			expected: testBase + "/lazy/three.jpg",
		},
		{
			name:     "data-original",
			img:      `<img data-original="/lazy/two.jpg">`,
			expected: testBase + "/lazy/two.jpg",
		},
		{
			name:     "absolute url kept",
			img:      `<img src="https://cdn.example.net/photo.jpg">`,
			expected: "https://cdn.example.net/photo.jpg",
		},
		{
			name:     "protocol relative",
			img:      `<img src="//cdn.example.net/photo.jpg">`,
			expected: "https://cdn.example.net/photo.jpg",
		},
		{
			name:     "no usable attributes",
			img:      `<img alt="nothing">`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := "<html><body><main>" + tt.img + "</main></body></html>"
			require.Equal(t, tt.expected, selectFrom(t, page))
		})
	}
}

func TestSelectPictureSources(t *testing.T) {
	tests := []struct {
		name     string
		picture  string
		expected string
	}{
		{
			name:     "first non-empty source wins",
			picture:  `<picture><source srcset=""><source srcset="/p/a.jpg 100w, /p/b.jpg 640w"><source srcset="/p/c.jpg 2000w"></picture>`,
			expected: testBase + "/p/b.jpg",
		},
		{
			name:     "source without widths takes first url",
			picture:  `<picture><source srcset="/p/a.jpg, /p/b.jpg"></picture>`,
			expected: testBase + "/p/a.jpg",
		},
		{
			name:     "falls back to nested img",
			picture:  `<picture><source srcset="  "><img srcset="/p/n1.jpg 10w, /p/n2.jpg 20w"></picture>`,
			expected: testBase + "/p/n2.jpg",
		},
		{
			name:     "empty picture",
			picture:  `<picture></picture>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := "<html><body><main>" + tt.picture + "</main></body></html>"
			require.Equal(t, tt.expected, selectFrom(t, page))
		})
	}
}

func TestSelectJunkPictureFallsThroughToLaterPasses(t *testing.T) {
	page := `<html><body><main>
		<picture><source srcset="/brand/logo-small.png 100w, /brand/logo-large.png 400w"></picture>
		<img src="/images/lesson.jpg">
	</main></body></html>`

	require.Equal(t, testBase+"/images/lesson.jpg", selectFrom(t, page))
}

func TestSelectSearchesRootsInOrder(t *testing.T) {
	page := `<html><body>
		<article><img src="/images/first-article.jpg"></article>
		<article><picture><source srcset="/images/second-article.jpg 800w"></picture></article>
	</body></html>`

	require.Equal(t, testBase+"/images/first-article.jpg", selectFrom(t, page))
}

func TestSelectDeterministic(t *testing.T) {
	page := `<html><body><main>
		<img src="/images/a.jpg"><figure><img src="/images/b.jpg"></figure>
		<picture><source srcset="/images/c.jpg 10w, /images/d.jpg 20w"></picture>
	</main></body></html>`

	doc, err := ParseString(page)
	require.NoError(t, err)
	base, err := url.Parse(testBase)
	require.NoError(t, err)
	selector := NewImageSelector(base, 1)

	first := selector.Select(doc)
	require.Equal(t, testBase+"/images/d.jpg", first)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, selector.Select(doc))
	}
}

func TestSelectNeverReturnsJunk(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, junk := range junkSubstrings {
		b.WriteString(`<img src="/assets/` + junk + `.png">`)
	}
	b.WriteString(`<img src="/assets/drawing.svg">`)
	b.WriteString(`</main></body></html>`)

	got := selectFrom(t, b.String())
	require.Equal(t, "", got)
	require.False(t, got != "" && IsJunkImage(got))
}

func TestIsJunkImage(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{url: "", expected: true},
		{url: "   ", expected: true},
		{url: "data:image/png;base64,AAAA", expected: true},
		{url: "https://x.test/a.svg", expected: true},
		{url: "https://x.test/a.svg?w=20", expected: true},
		{url: "https://x.test/Sprite-Sheet.png", expected: true},
		{url: "https://x.test/LOGO.jpg", expected: true},
		{url: "https://x.test/img/1x1.gif", expected: true},
		{url: "https://x.test/transparent.gif", expected: true},
		{url: "https://x.test/images/lesson-05.jpg", expected: false},
		{url: "https://x.test/images/photo.jpeg?fit=crop", expected: false},
	}

	for _, tt := range tests {
		if got := IsJunkImage(tt.url); got != tt.expected {
			t.Errorf("IsJunkImage(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://www.churchofjesuschrist.org")
	require.NoError(t, err)

	require.Equal(t, "", ResolveURL(base, ""))
	require.Equal(t, "https://www.churchofjesuschrist.org/imgs/a.jpg", ResolveURL(base, "/imgs/a.jpg"))
	require.Equal(t, "https://www.churchofjesuschrist.org/imgs/a.jpg", ResolveURL(base, "imgs/a.jpg"))
	require.Equal(t, "https://cdn.test/x.jpg", ResolveURL(base, "https://cdn.test/x.jpg"))
	require.Equal(t, "", ResolveURL(base, "http://[::1"))
}

func TestResolveURLEscaping(t *testing.T) {
	base, err := url.Parse("https://www.churchofjesuschrist.org")
	require.NoError(t, err)

	iiif := "https://www.churchofjesuschrist.org/imgs/abc123/full/!640%2C/0/default"
	require.Equal(t, iiif, ResolveURL(base, "/imgs/abc123/full/!640%2C/0/default"))
	require.Equal(t, "https://www.churchofjesuschrist.org/imgs/caf%C3%A9.jpg", ResolveURL(base, "/imgs/café.jpg"))
	require.Equal(t, "https://www.churchofjesuschrist.org/imgs/a%20b.jpg", ResolveURL(base, "/imgs/a b.jpg"))
	require.Equal(t, "", ResolveURL(base, "/imgs/%zz.jpg"))
}
