package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-cfm/config"
	"github.com/aluiziolira/go-scrape-cfm/models"
	"github.com/aluiziolira/go-scrape-cfm/parser"
	"github.com/aluiziolira/go-scrape-cfm/schedule"
	"github.com/aluiziolira/go-scrape-cfm/scraper"
)

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// SnapshotWriter persists a snapshot.
type SnapshotWriter interface {
	Write(snapshot *models.Snapshot) error
	Validate() error
	Filename() string
}

// WeekError carries the week a failed run was working on.
type WeekError struct {
	Week int
	Err  error
}

func (e *WeekError) Error() string {
	return fmt.Sprintf("scrape week %d: %v", e.Week, e.Err)
}

func (e *WeekError) Unwrap() error {
	return e.Err
}

// Pipeline runs week -> url -> fetch -> parse -> extract -> write, once, in order.
type Pipeline struct {
	cfg     *config.Config
	fetcher Fetcher
	writer  SnapshotWriter
	metrics *scraper.Metrics
	now     func() time.Time
}

// NewPipeline wires the run steps. metrics may be nil.
func NewPipeline(cfg *config.Config, fetcher Fetcher, writer SnapshotWriter, metrics *scraper.Metrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock replaces time.Now, for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Week returns the configured week, or the current one when unset.
func (p *Pipeline) Week() int {
	if p.cfg.Week > 0 {
		return schedule.ClampWeek(p.cfg.Week)
	}
	return schedule.WeekNumber(p.now())
}

// Run scrapes the current week and writes the snapshot. Fetch and parse failures leave
// the output file untouched.
func (p *Pipeline) Run(ctx context.Context) (*models.RunResult, error) {
	start := p.now()
	week := p.Week()
	p.metrics.SetWeek(week)

	snapshot, page, err := p.scrape(ctx, week)
	if err != nil {
		return nil, &WeekError{Week: week, Err: err}
	}

	if err := p.writer.Write(snapshot); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}
	if err := p.writer.Validate(); err != nil {
		return nil, fmt.Errorf("validate snapshot: %w", err)
	}

	end := p.now()
	p.metrics.RecordSnapshot(end, snapshot.ImageURL != "")

	return &models.RunResult{
		Snapshot:   snapshot,
		OutputFile: p.writer.Filename(),
		StartTime:  start,
		EndTime:    end,
		StatusCode: page.StatusCode,
		BodyBytes:  len(page.Body),
	}, nil
}

func (p *Pipeline) scrape(ctx context.Context, week int) (*models.Snapshot, *scraper.Page, error) {
	sourceURL := p.cfg.SourceURL(week)
	slog.Info("fetching manual page", slog.Int("week", week), slog.String("url", sourceURL))

	page, err := p.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, nil, err
	}

	doc, err := parser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, nil, err
	}

	headings := doc.Headings()
	imageURL := parser.NewImageSelector(p.cfg.Base(), p.cfg.SeenCacheSize).Select(doc)

	if headings.Big == "" {
		slog.Warn("big heading not found", slog.String("url", sourceURL))
	}
	if headings.Small == "" {
		slog.Warn("small heading not found", slog.String("url", sourceURL))
	}
	if imageURL == "" {
		slog.Warn("no image selected", slog.String("url", sourceURL), slog.Bool("scoped", doc.Scoped()))
	}

	return &models.Snapshot{
		GeneratedAtUTC: models.FormatGeneratedAt(p.now()),
		WeekNumber:     week,
		SourceURL:      sourceURL,
		ImageURL:       imageURL,
		SmallHeading:   headings.Small,
		BigHeading:     headings.Big,
	}, page, nil
}
