package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/camelot-go/camelot"
	"github.com/joseph-ayodele/camelot-go/constants"
	"github.com/joseph-ayodele/camelot-go/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file (optional)")
		file       = flag.String("file", "", "PDF file to extract tables from (required unless -version)")
		mode       = flag.String("mode", "", "parsing mode: "+fmt.Sprint(constants.ModesAsStringSlice()))
		format     = flag.String("format", "", "camelot output format: "+fmt.Sprint(constants.FormatsAsStringSlice()))
		output     = flag.String("output", "", "camelot output file (defaults to a temp dir that is removed afterwards)")
		to         = flag.String("to", string(camelot.AsString), "result representation: string (pretty JSON), array (generic decoded value, lexical key order) or object (typed result, numeric key order)")
		xlsx       = flag.String("xlsx", "", "also write the tables to this XLSX workbook")
		version    = flag.Bool("version", false, "print the installed camelot version and exit")
		debug      = flag.Bool("debug", false, "log the command line and camelot output")
		timeout    = flag.Duration("timeout", 0, "per-invocation timeout (0 = config value)")
		validate   = flag.Bool("validate", false, "validate every table against the camelot JSON table schema")

		pages      = flag.String("pages", "", "comma-separated page numbers, e.g. 1,3-end")
		password   = flag.String("password", "", "password for an encrypted PDF")
		columns    = flag.String("columns", "", "column separator x-coordinates")
		tableAreas = flag.String("table-areas", "", "table areas as x1,y1,x2,y2")
		shiftText  = flag.String("shift-text", "", "direction to shift spanning text")
		splitText  = flag.String("split-text", "", "split text spanning multiple cells")
		flagSize   = flag.String("flag-size", "", "flag super/subscripts")
		stripText  = flag.String("strip-text", "", "characters to strip from cell text")
		language   = flag.String("language", "", "OCR language")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *version {
		opts, err := cfg.Camelot.Options("")
		if err != nil {
			logger.Error("invalid camelot config", "error", err)
			os.Exit(1)
		}
		opts.Mode = constants.ModeVersion
		client, err := camelot.New(opts, camelot.WithLogger(logger))
		if err != nil {
			logger.Error("failed to build version query", "error", err)
			os.Exit(1)
		}
		v, err := client.Version(ctx)
		if err != nil {
			logger.Error("version query failed", "error", err)
			os.Exit(exitCode(err))
		}
		if v == "" {
			printError("camelot did not report a version\n")
			os.Exit(1)
		}
		fmt.Println(v)
		return
	}

	if *file == "" {
		printError("Error: -file is required\n")
		flag.Usage()
		os.Exit(2)
	}

	opts, err := cfg.Camelot.Options(*file)
	if err != nil {
		logger.Error("invalid camelot config", "error", err)
		os.Exit(1)
	}
	if *mode != "" {
		m, ok := constants.ParseMode(*mode)
		if !ok {
			printError("Error: unknown -mode %q\n", *mode)
			os.Exit(2)
		}
		opts.Mode = m
	}
	if *format != "" {
		f, ok := constants.ParseFormat(*format)
		if !ok {
			printError("Error: unknown -format %q\n", *format)
			os.Exit(2)
		}
		opts.Format = f
	}
	opts.Output = *output
	opts.Debug = opts.Debug || *debug
	opts.ValidateTables = opts.ValidateTables || *validate
	if *timeout > 0 {
		opts.Timeout = *timeout
	}

	// Tuning flags are only passed when set on the command line, so an
	// explicit empty value still reaches camelot.
	tuning := map[string]struct {
		dst **string
		val *string
	}{
		"pages":       {&opts.Pages, pages},
		"password":    {&opts.Password, password},
		"columns":     {&opts.Columns, columns},
		"table-areas": {&opts.TableAreas, tableAreas},
		"shift-text":  {&opts.ShiftText, shiftText},
		"split-text":  {&opts.SplitText, splitText},
		"flag-size":   {&opts.FlagSize, flagSize},
		"strip-text":  {&opts.StripText, stripText},
		"language":    {&opts.Language, language},
	}
	flag.Visit(func(f *flag.Flag) {
		if t, ok := tuning[f.Name]; ok {
			*t.dst = camelot.String(*t.val)
		}
	})

	client, err := camelot.New(opts, camelot.WithLogger(logger))
	if err != nil {
		logger.Error("invalid options", "error", err)
		os.Exit(2)
	}

	start := time.Now()
	res, err := client.Extract(ctx)
	if err != nil {
		logger.Error("extraction failed", "file", *file, "error", err)
		printError("%v\n", err)
		os.Exit(exitCode(err))
	}
	logger.Debug("extraction finished", "duration_ms", time.Since(start).Milliseconds())

	if *xlsx != "" {
		if err := writeXLSX(*xlsx, res); err != nil {
			logger.Error("failed to write xlsx", "path", *xlsx, "error", err)
			os.Exit(1)
		}
		logger.Info("wrote workbook", "path", *xlsx, "tables", res.TableCount())
	}

	if err := printResult(res, camelot.Representation(*to)); err != nil {
		logger.Error("failed to print result", "error", err)
		os.Exit(1)
	}
}

// printResult writes res in the representation picked with -to. Strings are
// printed as-is; array and object forms are encoded as compact JSON, with
// lexical key order for array and numeric page/table order for object.
func printResult(res *camelot.Result, to camelot.Representation) error {
	v, err := camelot.Convert(res, to)
	if err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		_, err = fmt.Println(s)
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(b))
	return err
}

func writeXLSX(path string, res *camelot.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.WriteXLSX(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// exitCode maps error kinds onto distinct process exit codes.
func exitCode(err error) int {
	var cerr *camelot.Error
	if !errors.As(err, &cerr) {
		return 1
	}
	switch cerr.Kind {
	case camelot.KindNotInstalled:
		return 127
	case camelot.KindFileNotFound:
		return 66
	case camelot.KindDependency:
		return 69
	case camelot.KindTimeout:
		return 124
	}
	return 1
}
