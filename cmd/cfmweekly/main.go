package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aluiziolira/go-scrape-cfm/config"
	"github.com/aluiziolira/go-scrape-cfm/models"
	"github.com/aluiziolira/go-scrape-cfm/pipeline"
	"github.com/aluiziolira/go-scrape-cfm/scraper"
	"github.com/google/uuid"
)

// newFetcher is replaced in tests to route requests through a mock transport.
var newFetcher = scraper.NewFetcher

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	logger, level := newLogger(stderr, cfg.Verbose)
	slog.SetDefault(logger.With(slog.String("run_id", uuid.NewString())))
	slog.SetLogLoggerLevel(level.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := scraper.NewMetrics()
	fetcher, err := newFetcher(cfg, metrics)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		return 1
	}

	p := pipeline.NewPipeline(cfg, fetcher, pipeline.NewJSONWriter(cfg.OutputFile), metrics)
	result, err := p.Run(ctx)
	writeMetrics(metrics, cfg.MetricsFile)
	if err != nil {
		var weekErr *pipeline.WeekError
		if errors.As(err, &weekErr) {
			fmt.Fprintf(stderr, "ERROR scraping week %d: %v\n", weekErr.Week, weekErr.Err)
		} else {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
		}
		slog.Error("snapshot run failed",
			slog.String("category", scraper.ErrorType(err)),
			slog.Any("error", err),
		)
		return 1
	}

	printSummary(stdout, result)
	return 0
}

func loadConfig(args []string, stderr io.Writer) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if value, ok := config.EnvString("CFM_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("CFM_METRICS_FILE"); ok {
		cfg.MetricsFile = value
	}
	if value, ok, err := config.EnvInt("CFM_WEEK"); err != nil {
		return nil, err
	} else if ok {
		cfg.Week = value
	}
	if value, ok, err := config.EnvDuration("CFM_TIMEOUT"); err != nil {
		return nil, err
	} else if ok {
		cfg.Timeout = value
	}

	fs := flag.NewFlagSet("cfmweekly", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Snapshot JSON path")
	fs.IntVar(&cfg.Week, "week", cfg.Week, "Manual week 1-52 (0 = current ISO week)")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics in text format to this path")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeMetrics(metrics *scraper.Metrics, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		slog.Error("metrics textfile failed", slog.Any("error", err))
	}
}

func printSummary(w io.Writer, result *models.RunResult) {
	fmt.Fprintf(w, "Wrote %s for week %d: %s\n", result.OutputFile, result.Snapshot.WeekNumber, result.Snapshot.BigHeading)
	slog.Debug("run complete",
		slog.Int("status", result.StatusCode),
		slog.Int("bytes", result.BodyBytes),
		slog.String("image_url", result.Snapshot.ImageURL),
		slog.Duration("duration", result.EndTime.Sub(result.StartTime)),
	)
}

func newLogger(w io.Writer, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), level
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
