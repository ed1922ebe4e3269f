package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/camelot-go/internal/async"
	"github.com/joseph-ayodele/camelot-go/internal/common"
	"github.com/joseph-ayodele/camelot-go/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type summary struct {
	mu        sync.Mutex
	succeeded int
	failed    int
	tables    int
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file (optional)")
		dir        = flag.String("dir", "", "directory to scan for PDFs (required)")
		out        = flag.String("out", "", "directory for <name>.json results (defaults to -dir)")
		workers    = flag.Int("workers", 0, "concurrent camelot processes (0 = config value)")
		watch      = flag.Bool("watch", false, "keep running and extract PDFs as they appear")
		debounce   = flag.Duration("debounce", 500*time.Millisecond, "quiet period before a changed file is extracted in -watch mode")
		hidden     = flag.Bool("hidden", false, "include hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: -dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = *dir
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *out, "error", err)
		os.Exit(1)
	}

	jobTimeout, _ := cfg.Batch.JobTimeoutDuration()
	sum := &summary{}
	handle := func(ctx context.Context, o async.Outcome) {
		sum.mu.Lock()
		defer sum.mu.Unlock()
		if o.Err != nil {
			sum.failed++
			return
		}
		dst := ingest.OutputPath(*dir, *out, o.Job.Options.FilePath)
		if err := writeResult(dst, o); err != nil {
			logger.Error("failed to write result", "path", dst, "request_id", common.RequestIDFromContext(ctx), "error", err)
			sum.failed++
			return
		}
		sum.succeeded++
		sum.tables += o.Result.TableCount()
	}

	queue := async.NewExtractQueue(handle, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithJobTimeout(jobTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if *watch {
		err = runWatch(ctx, queue, cfg.Camelot, *dir, *debounce, !*hidden, logger)
	} else {
		err = runScan(ctx, queue, cfg.Camelot, *dir, !*hidden, logger)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), jobTimeout+30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	logger.Info("batch finished",
		"succeeded", sum.succeeded,
		"failed", sum.failed,
		"tables", sum.tables,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}
	if sum.failed > 0 {
		os.Exit(1)
	}
}

func runScan(ctx context.Context, q async.Queue, cc common.CamelotConfig, dir string, skipHidden bool, logger *slog.Logger) error {
	files, stats, err := ingest.ScanDirectory(dir, skipHidden)
	if err != nil {
		return err
	}
	logger.Info("scanned directory", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := enqueue(ctx, q, cc, path); err != nil {
			return err
		}
	}
	return nil
}

func runWatch(ctx context.Context, q async.Queue, cc common.CamelotConfig, dir string, debounce time.Duration, skipHidden bool, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    debounce,
		SkipHidden:  skipHidden,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching directory", "dir", dir)

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := enqueue(ctx, q, cc, path); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func enqueue(ctx context.Context, q async.Queue, cc common.CamelotConfig, path string) error {
	opts, err := cc.Options(path)
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, async.NewJob(opts))
}

func writeResult(path string, o async.Outcome) error {
	b, err := json.MarshalIndent(o.Result, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
