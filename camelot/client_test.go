package camelot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/camelot-go/constants"
)

// stubRunner stands in for camelot. When tables is set it writes one file per
// entry next to the --output path found in the command line.
type stubRunner struct {
	mu     sync.Mutex
	calls  []Invocation
	stdout string
	stderr string
	err    error
	tables map[string]string // "page-1-table-1" -> content
	block  bool
}

func (s *stubRunner) Run(ctx context.Context, inv Invocation, _ *slog.Logger) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, inv)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, []byte("killed"), ctx.Err()
	}
	if s.err != nil {
		return []byte(s.stdout), []byte(s.stderr), s.err
	}
	if len(s.tables) > 0 {
		out, err := outputFromCommand(inv.Command)
		if err != nil {
			return nil, []byte(err.Error()), err
		}
		dir, base, ext := splitOutput(out)
		for key, content := range s.tables {
			name := filepath.Join(dir, base+"-"+key+"."+ext)
			if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
				return nil, []byte(err.Error()), err
			}
		}
	}
	return []byte(s.stdout), []byte(s.stderr), nil
}

func (s *stubRunner) lastCall() Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func outputFromCommand(cmd string) (string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return "", err
	}
	for i, a := range args {
		if a == "--output" && i+1 < len(args) {
			return args[i+1], nil
		}
	}
	return "", errors.New("no --output in command")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, opts Options, r Runner) *Client {
	t.Helper()
	c, err := New(opts, WithRunner(r), WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Config().Cleanup() })
	return c
}

var sampleTables = map[string]string{
	"page-1-table-1": `[{"0":"Name","1":"Qty"},{"0":"Apple","1":"3"}]`,
	"page-1-table-2": `[{"0":"Total"}]`,
	"page-3-table-1": `[{"0":"Footer"}]`,
}

func TestExtractMergesTablesAndRemovesTempDir(t *testing.T) {
	stub := &stubRunner{tables: sampleTables}
	c := newTestClient(t, Options{FilePath: "/data/report.pdf"}, stub)
	tmp := c.Config().TempDir()
	require.DirExists(t, tmp)

	res, err := c.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, res.PageNumbers())
	assert.Equal(t, []int{1, 2}, res.Pages[1].TableNumbers())
	got, _ := res.Table(1, 1)
	assert.JSONEq(t, sampleTables["page-1-table-1"], string(got))

	assert.NoDirExists(t, tmp)
	assert.Equal(t, BuildCommand(c.Config()), stub.lastCall().Command)
}

func TestExtractNoTables(t *testing.T) {
	c := newTestClient(t, Options{FilePath: "/data/empty.pdf"}, &stubRunner{})

	s, err := c.ExtractString(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages":{}}`, s)
}

func TestExtractAsRepresentations(t *testing.T) {
	ctx := context.Background()
	extract := func(to Representation) any {
		c := newTestClient(t, Options{FilePath: "/data/report.pdf"}, &stubRunner{tables: sampleTables})
		v, err := c.ExtractAs(ctx, to)
		require.NoError(t, err)
		return v
	}

	str, ok := extract(AsString).(string)
	require.True(t, ok)
	assert.Contains(t, str, `"pages"`)
	assert.Contains(t, str, "\n    ")

	arr, ok := extract(AsArray).(map[string]any)
	require.True(t, ok)
	pages, ok := arr["pages"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, pages, 2)
	assert.Contains(t, pages, "3")

	obj, ok := extract(AsObject).(*Result)
	require.True(t, ok)
	assert.Equal(t, 3, obj.TableCount())

	assert.Equal(t, str, extract("yaml"))
}

func TestConvert(t *testing.T) {
	res := NewResult()
	res.Add(10, 1, []byte(`[{"0":"x"}]`))
	res.Add(2, 1, []byte(`[{"0":"y"}]`))

	v, err := Convert(res, AsObject)
	require.NoError(t, err)
	assert.Same(t, res, v)

	v, err = Convert(res, AsArray)
	require.NoError(t, err)
	arr, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, arr["pages"], "10")

	v, err = Convert(res, AsString)
	require.NoError(t, err)
	str := v.(string)
	assert.Less(t, strings.Index(str, `"2"`), strings.Index(str, `"10"`))

	v, err = Convert(res, "yaml")
	require.NoError(t, err)
	assert.Equal(t, str, v)
}

func TestExtractFailureLeavesTempDir(t *testing.T) {
	stub := &stubRunner{
		stderr: "Usage: camelot lattice [OPTIONS] FILEPATH\nError: Invalid value for 'FILEPATH': Path '/invalid/file.pdf' does not exist.",
		err:    errors.New("exit status 2"),
	}
	c := newTestClient(t, Options{FilePath: "/invalid/path/to/file.pdf"}, stub)

	_, err := c.Extract(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)

	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, KindFileNotFound, runErr.Kind)
	assert.Equal(t, BuildCommand(c.Config()), runErr.Command)
	assert.Contains(t, err.Error(), runErr.Command)

	// failure path does not clean up; the caller may.
	assert.DirExists(t, c.Config().TempDir())
	require.NoError(t, c.Config().Cleanup())
	assert.NoDirExists(t, c.Config().TempDir())
}

func TestExtractErrorKinds(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"sh: 1: camelot: not found", ErrNotInstalled},
		{"Error: Invalid value for 'FILEPATH'", ErrFileNotFound},
		{"sh: 1: gs: not found", ErrDependency},
		{"something else broke", ErrExecution},
	}
	for _, tt := range tests {
		t.Run(tt.stderr, func(t *testing.T) {
			c := newTestClient(t, Options{FilePath: "/data/report.pdf"}, &stubRunner{stderr: tt.stderr, err: errors.New("exit status 1")})
			_, err := c.Extract(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), BuildCommand(c.Config()))
		})
	}
}

func TestExtractCallerOutputIsKept(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.json")
	c := newTestClient(t, Options{FilePath: "/data/report.pdf", Output: out}, &stubRunner{tables: sampleTables})

	res, err := c.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.TableCount())
	assert.FileExists(t, filepath.Join(dir, "result-page-1-table-1.json"))
}

func TestExtractRunsInInputDirectory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4"), 0o644))

	stub := &stubRunner{}
	c := newTestClient(t, Options{FilePath: input, Env: map[string]string{"CAMELOT_TEST": "1"}}, stub)
	_, err := c.Extract(context.Background())
	require.NoError(t, err)

	call := stub.lastCall()
	assert.Equal(t, dir, call.Dir)
	assert.Contains(t, call.Env, "CAMELOT_TEST=1")
}

func TestExtractMissingInputDirectoryFallsBack(t *testing.T) {
	stub := &stubRunner{}
	c := newTestClient(t, Options{FilePath: "/invalid/path/to/file.pdf"}, stub)
	_, err := c.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stub.lastCall().Dir)
}

func TestExtractValidatesTables(t *testing.T) {
	stub := &stubRunner{tables: map[string]string{"page-1-table-1": `{"unexpected":true}`}}
	c := newTestClient(t, Options{FilePath: "/data/report.pdf", ValidateTables: true}, stub)

	_, err := c.Extract(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestExtractTimeout(t *testing.T) {
	stub := &stubRunner{block: true}
	c := newTestClient(t, Options{FilePath: "/data/report.pdf", Timeout: 20 * time.Millisecond}, stub)

	_, err := c.Extract(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExtractOnVersionConfig(t *testing.T) {
	c := newTestClient(t, Options{Mode: constants.ModeVersion}, &stubRunner{})
	_, err := c.Extract(context.Background())
	assert.Error(t, err)
}

func TestDebugIsObservationalOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	stub := &stubRunner{stdout: "partial", stderr: "sh: 1: gs: not found", err: errors.New("exit status 1")}

	c, err := New(Options{FilePath: "/data/report.pdf", Debug: true}, WithRunner(stub), WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Config().Cleanup() })

	_, err = c.Extract(context.Background())
	assert.ErrorIs(t, err, ErrDependency)
	assert.Contains(t, buf.String(), "camelot debug")
	assert.Contains(t, buf.String(), "stdout=partial")
}

func TestVersion(t *testing.T) {
	stub := &stubRunner{stdout: "camelot version 1.2.3\n"}
	c := newTestClient(t, Options{FilePath: "/data/report.pdf", BinPath: "/opt/camelot"}, stub)

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "/opt/camelot --version", stub.lastCall().Command)

	// the extraction temp dir is untouched by a version query
	assert.DirExists(t, c.Config().TempDir())
}

func TestVersionWithoutNumber(t *testing.T) {
	c := newTestClient(t, Options{Mode: constants.ModeVersion}, &stubRunner{stdout: "camelot version unknown\n"})

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, "0.11.0", ParseVersion("camelot, version 0.11.0\n"))
	assert.Equal(t, "1.0", ParseVersion("Camelot VERSION\t1.0"))
	assert.Empty(t, ParseVersion("camelot 1.2.3"))
	assert.Empty(t, ParseVersion(""))
}

func TestExtractAll(t *testing.T) {
	stub := &stubRunner{tables: map[string]string{"page-1-table-1": `[{"0":"x"}]`}}
	docs := []Options{
		{FilePath: "/data/a.pdf"},
		{FilePath: "/data/b.pdf"},
		{FilePath: "/data/c.pdf"},
	}

	results, err := ExtractAll(context.Background(), docs, 2, WithRunner(stub), WithLogger(discardLogger()))
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 1, r.TableCount())
	}

	outputs := map[string]struct{}{}
	for _, call := range stub.calls {
		out, err := outputFromCommand(call.Command)
		require.NoError(t, err)
		outputs[out] = struct{}{}
	}
	assert.Len(t, outputs, 3)
}

func TestExtractAllStopsOnError(t *testing.T) {
	stub := &stubRunner{stderr: "boom", err: errors.New("exit status 1")}
	_, err := ExtractAll(context.Background(), []Options{{FilePath: "/data/a.pdf"}}, 0, WithRunner(stub), WithLogger(discardLogger()))
	assert.ErrorIs(t, err, ErrExecution)
}
