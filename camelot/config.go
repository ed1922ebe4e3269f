package camelot

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/camelot-go/constants"
)

// Options holds everything a caller can set for one camelot invocation.
// Tuning fields are pointers: nil omits the flag, non-nil is passed verbatim.
type Options struct {
	BinPath  string           // binary name or path; if empty -> "camelot"
	Mode     constants.Mode   `validate:"omitempty,oneof=hybrid lattice network stream version"`
	FilePath string           `validate:"required_unless=Mode version"`
	Format   constants.Format `validate:"omitempty,oneof=csv json excel html markdown sqlite"`
	Output   string           // if empty a temp dir is allocated
	Debug    bool
	Env      map[string]string

	Pages      *string // e.g. "1,3-5"
	Password   *string
	Columns    *string
	TableAreas *string
	ShiftText  *string
	SplitText  *string
	FlagSize   *string
	StripText  *string
	Language   *string

	Timeout        time.Duration `validate:"gte=0"` // 0 = no limit
	ValidateTables bool
}

// String returns a pointer to s, for filling optional Options fields.
func String(s string) *string { return &s }

// ParamKind tells whether a parameter is rendered by position or behind a flag.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamFlag
)

// Param is one entry of the ordered parameter table.
type Param struct {
	Name string
	Kind ParamKind
	Slot int    // set for ParamPositional
	Flag string // set for ParamFlag
}

// Parameter names.
const (
	ParamBinPath    = "binPath"
	ParamFormat     = "format"
	ParamPages      = "pages"
	ParamPassword   = "password"
	ParamOutput     = "output"
	ParamColumns    = "columns"
	ParamTableAreas = "tableAreas"
	ParamShiftText  = "shiftText"
	ParamSplitText  = "splitText"
	ParamFlagSize   = "flagSize"
	ParamStripText  = "stripText"
	ParamLanguage   = "language"
	ParamMode       = "mode"
	ParamFilePath   = "filePath"
)

func positional(name string, slot int) Param {
	return Param{Name: name, Kind: ParamPositional, Slot: slot}
}

func flagged(name, flag string) Param {
	return Param{Name: name, Kind: ParamFlag, Flag: flag}
}

// parameters fixes the argument order of every rendered command.
var parameters = []Param{
	positional(ParamBinPath, 0),
	flagged(ParamFormat, "--format"),
	flagged(ParamPages, "--pages"),
	flagged(ParamPassword, "--password"),
	flagged(ParamOutput, "--output"),
	flagged(ParamColumns, "--columns"),
	flagged(ParamTableAreas, "--table_areas"),
	flagged(ParamShiftText, "--shift_text"),
	flagged(ParamSplitText, "--split_text"),
	flagged(ParamFlagSize, "--flag_size"),
	flagged(ParamStripText, "--strip_text"),
	flagged(ParamLanguage, "--language"),
	positional(ParamMode, 1),
	positional(ParamFilePath, 2),
}

// Parameters returns a copy of the ordered parameter table.
func Parameters() []Param {
	return slices.Clone(parameters)
}

// Arg is a parameter paired with the value it renders.
type Arg struct {
	Param Param
	Value string
}

// Config is the immutable, defaulted form of Options.
type Config struct {
	opts   Options
	tmpDir string
}

var validate = validator.New()

// NewConfig applies defaults, validates and, when no output was given,
// allocates a fresh temp directory to receive camelot's table files.
func NewConfig(opts Options) (*Config, error) {
	if opts.BinPath == "" {
		opts.BinPath = constants.DefaultBinary
	}
	if opts.Mode == "" {
		opts.Mode = constants.DefaultMode
	}
	if opts.Format == "" {
		opts.Format = constants.DefaultFormat
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Env = cloneEnv(opts.Env)

	if opts.FilePath != "" {
		abs, err := filepath.Abs(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("resolve file path: %w", err)
		}
		opts.FilePath = abs
	}

	cfg := &Config{opts: opts}
	if opts.Mode == constants.ModeVersion {
		cfg.opts.Output = ""
		return cfg, nil
	}

	if opts.Output != "" {
		abs, err := filepath.Abs(opts.Output)
		if err != nil {
			return nil, fmt.Errorf("resolve output path: %w", err)
		}
		cfg.opts.Output = abs
		return cfg, nil
	}

	tmpDir, err := os.MkdirTemp("", constants.TempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	cfg.tmpDir = tmpDir
	cfg.opts.Output = filepath.Join(tmpDir, constants.DefaultOutputName)
	return cfg, nil
}

func cloneEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func (c *Config) BinPath() string          { return c.opts.BinPath }
func (c *Config) Mode() constants.Mode     { return c.opts.Mode }
func (c *Config) FilePath() string         { return c.opts.FilePath }
func (c *Config) Format() constants.Format { return c.opts.Format }
func (c *Config) Output() string           { return c.opts.Output }
func (c *Config) Debug() bool              { return c.opts.Debug }
func (c *Config) Timeout() time.Duration   { return c.opts.Timeout }
func (c *Config) ValidateTables() bool     { return c.opts.ValidateTables }

// TempDir is the auto-allocated output directory, or "" when the caller
// supplied an output path or the config is a version query.
func (c *Config) TempDir() string { return c.tmpDir }

// IsVersion reports whether this config only queries the tool version.
func (c *Config) IsVersion() bool { return c.opts.Mode == constants.ModeVersion }

// Dir is the subprocess working directory: the input file's directory.
func (c *Config) Dir() string {
	if c.opts.FilePath == "" {
		return ""
	}
	return filepath.Dir(c.opts.FilePath)
}

// Environ returns the subprocess environment, or nil to inherit ours.
func (c *Config) Environ() []string {
	if len(c.opts.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.opts.Env))
	for k := range c.opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+c.opts.Env[k])
	}
	return env
}

// Cleanup removes the tracked temp dir. Extraction only does this itself on
// success, so callers handling an error may call it to reclaim the directory.
func (c *Config) Cleanup() error {
	if c.tmpDir == "" {
		return nil
	}
	return os.RemoveAll(c.tmpDir)
}

// versionConfig derives the version query for the same binary and environment.
func (c *Config) versionConfig() *Config {
	opts := c.opts
	opts.Mode = constants.ModeVersion
	opts.Output = ""
	return &Config{opts: opts}
}

// Args projects the config onto the ordered parameter table, skipping unset
// fields. A version query renders only the binary and --version.
func (c *Config) Args() []Arg {
	if c.IsVersion() {
		return []Arg{
			{Param: parameters[0], Value: c.opts.BinPath},
			{Param: positional(ParamMode, 1), Value: "--version"},
		}
	}

	args := make([]Arg, 0, len(parameters))
	for _, p := range parameters {
		v, ok := c.value(p.Name)
		if !ok {
			continue
		}
		args = append(args, Arg{Param: p, Value: v})
	}
	return args
}

func (c *Config) value(name string) (string, bool) {
	switch name {
	case ParamBinPath:
		return c.opts.BinPath, true
	case ParamFormat:
		return string(c.opts.Format), true
	case ParamOutput:
		return c.opts.Output, c.opts.Output != ""
	case ParamMode:
		return string(c.opts.Mode), true
	case ParamFilePath:
		return c.opts.FilePath, c.opts.FilePath != ""
	case ParamPages:
		return deref(c.opts.Pages)
	case ParamPassword:
		return deref(c.opts.Password)
	case ParamColumns:
		return deref(c.opts.Columns)
	case ParamTableAreas:
		return deref(c.opts.TableAreas)
	case ParamShiftText:
		return deref(c.opts.ShiftText)
	case ParamSplitText:
		return deref(c.opts.SplitText)
	case ParamFlagSize:
		return deref(c.opts.FlagSize)
	case ParamStripText:
		return deref(c.opts.StripText)
	case ParamLanguage:
		return deref(c.opts.Language)
	}
	return "", false
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}
