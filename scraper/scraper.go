package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-cfm/config"
	"github.com/gocolly/colly/v2"
)

// Page is a fetched manual page.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher wraps a synchronous colly collector that issues exactly one GET per Fetch.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	// Status codes are judged by Fetch, colly would otherwise reject 203-299.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{
		cfg:       cfg,
		collector: collector,
		Metrics:   metrics,
	}, nil
}

// WithTransport swaps the HTTP transport, mainly for tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch performs one GET of pageURL. Transport failures and non-2xx statuses are returned
// as classified errors; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		page     Page
		fetchErr error
	)
	collector := f.collector.Clone()
	collector.ParseHTTPErrorResponse = true
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	f.configureHooks(collector, &page, &fetchErr)

	if err := f.run(ctx, collector, pageURL, &fetchErr); err != nil {
		status := 0
		if ctx.Err() == nil {
			status = page.StatusCode
		}
		classified := classifyError(err, status)
		category := errorTypeLabel(classified)
		f.Metrics.IncError(category)
		slog.Error("request error",
			slog.String("url", pageURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return nil, classified
	}

	if !isSuccess(page.StatusCode) {
		classified := classifyError(nil, page.StatusCode)
		category := errorTypeLabel(classified)
		f.Metrics.IncError(category)
		slog.Error("non-2xx response",
			slog.Int("status", page.StatusCode),
			slog.String("url", pageURL),
		)
		return nil, classified
	}

	slog.Debug("fetched page",
		slog.String("url", page.URL),
		slog.Int("status", page.StatusCode),
		slog.Int("bytes", len(page.Body)),
		slog.Duration("duration", page.Duration),
	)
	return &page, nil
}

func (f *Fetcher) configureHooks(hooks collectorHooks, page *Page, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		r.ResponseCharacterEncoding = f.cfg.ResponseCharset
	})

	hooks.OnResponse(func(r *colly.Response) {
		*page = Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
		if r.Headers != nil {
			page.Headers = r.Headers.Clone()
		}
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			page.Duration = time.Since(start)
			f.Metrics.ObserveDuration(page.Duration)
		}
		f.Metrics.IncRequest(r.StatusCode)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			page.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) run(ctx context.Context, collector *colly.Collector, pageURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", pageURL, err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response %s: %w", pageURL, *fetchErr)
		}
		return nil
	}
}
