package camelot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/google/uuid"
)

// Representation selects the shape ExtractAs returns.
type Representation string

const (
	AsString Representation = "string" // pretty-printed JSON text
	AsArray  Representation = "array"  // generic map[string]any
	AsObject Representation = "object" // *Result
)

var reVersion = regexp.MustCompile(`(?i)version\s+([\d.]+)`)

// Client runs camelot for one configured document.
type Client struct {
	cfg    *Config
	runner Runner
	logger *slog.Logger
}

type ClientOption func(*Client)

func WithRunner(r Runner) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds the Config for opts (allocating a temp output dir if needed)
// and returns a client bound to it.
func New(opts Options, copts ...ClientOption) (*Client, error) {
	cfg, err := NewConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, copts...), nil
}

func NewWithConfig(cfg *Config, copts ...ClientOption) *Client {
	c := &Client{cfg: cfg, runner: ShellRunner{}, logger: slog.Default()}
	for _, o := range copts {
		o(c)
	}
	return c
}

func (c *Client) Config() *Config { return c.cfg }

// Extract runs camelot and merges the table files it wrote.
func (c *Client) Extract(ctx context.Context) (*Result, error) {
	if c.cfg.IsVersion() {
		return nil, fmt.Errorf("extract: %w: config is a version query", ErrExecution)
	}
	logger := c.logger.With("run_id", uuid.NewString(), "file", c.cfg.FilePath())

	if dir := c.cfg.TempDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}

	if _, err := c.execute(ctx, c.cfg, logger); err != nil {
		return nil, err
	}

	var check tableCheck
	if c.cfg.ValidateTables() {
		check = validateTableFile
	}
	res, err := collectResult(c.cfg.Output(), check)
	if err != nil {
		logger.Error("collect tables failed", "output", c.cfg.Output(), "error", err)
		return nil, err
	}

	if dir := c.cfg.TempDir(); dir != "" {
		if err := c.cfg.Cleanup(); err != nil {
			logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}

	logger.Info("extraction complete", "pages", len(res.Pages), "tables", res.TableCount())
	return res, nil
}

// ExtractAs runs Extract and converts the merged result with Convert.
func (c *Client) ExtractAs(ctx context.Context, to Representation) (any, error) {
	res, err := c.Extract(ctx)
	if err != nil {
		return nil, err
	}
	return Convert(res, to)
}

// Convert returns res in the requested representation. Unknown
// representations fall back to AsString.
func Convert(res *Result, to Representation) (any, error) {
	switch to {
	case AsObject:
		return res, nil
	case AsArray:
		b, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		return out, nil
	default:
		b, err := json.MarshalIndent(res, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return string(b), nil
	}
}

// ExtractString is ExtractAs(ctx, AsString) with a typed return.
func (c *Client) ExtractString(ctx context.Context) (string, error) {
	v, err := c.ExtractAs(ctx, AsString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Version queries `<bin> --version` and returns the dotted version number,
// or "" when the output carries none.
func (c *Client) Version(ctx context.Context) (string, error) {
	cfg := c.cfg
	if !cfg.IsVersion() {
		cfg = cfg.versionConfig()
	}
	out, err := c.execute(ctx, cfg, c.logger.With("run_id", uuid.NewString()))
	if err != nil {
		return "", err
	}
	return ParseVersion(string(out)), nil
}

// ParseVersion returns the first number following "version", or "".
func ParseVersion(out string) string {
	m := reVersion.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}

// execute runs the command for cfg and returns stdout. A failed run is
// returned as *Error; table files are not read here.
func (c *Client) execute(ctx context.Context, cfg *Config, logger *slog.Logger) ([]byte, error) {
	if cfg.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
	}

	command := BuildCommand(cfg)
	inv := Invocation{
		Command: command,
		Dir:     workDir(cfg.Dir(), logger),
		Env:     cfg.Environ(),
	}

	stdout, stderr, err := c.runner.Run(ctx, inv, logger)

	if cfg.Debug() {
		logger.Info("camelot debug",
			"command", command,
			"stdout", string(stdout),
			"stderr", string(stderr),
		)
	}

	if err != nil {
		runErr := newRunError(ctx, cfg, command, stderr, err)
		logger.Error("camelot run failed", "kind", runErr.Kind.String(), "error", err)
		return nil, runErr
	}
	return stdout, nil
}

// workDir drops a working directory that does not exist so camelot itself
// gets to report the bad input path.
func workDir(dir string, logger *slog.Logger) string {
	if dir == "" {
		return ""
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		logger.Debug("input directory missing, using current directory", "dir", dir)
		return ""
	}
	return dir
}
