package camelot

import (
	"context"
	"testing"

	"github.com/mattn/go-shellwords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/camelot-go/constants"
)

func TestBuildCommand(t *testing.T) {
	cfg := newTestConfig(t, Options{
		FilePath: "/tmp/doc.pdf",
		Output:   "/tmp/out/tables.json",
		Pages:    String("1,3-5"),
		Password: String("p w"),
	})

	assert.Equal(t,
		"camelot --format json --pages 1,3-5 --password 'p w' --output /tmp/out/tables.json lattice /tmp/doc.pdf",
		BuildCommand(cfg))
}

func TestBuildCommandOrderIgnoresFieldOrder(t *testing.T) {
	a := newTestConfig(t, Options{
		FilePath: "/tmp/doc.pdf", Output: "/tmp/o.json", Mode: constants.ModeStream,
		Columns: String("10,20"), Language: String("eng"),
	})
	b := newTestConfig(t, Options{
		Language: String("eng"), Columns: String("10,20"), Mode: constants.ModeStream,
		Output: "/tmp/o.json", FilePath: "/tmp/doc.pdf",
	})

	want := "camelot --format json --output /tmp/o.json --columns 10,20 --language eng stream /tmp/doc.pdf"
	assert.Equal(t, want, BuildCommand(a))
	assert.Equal(t, want, BuildCommand(b))
}

func TestBuildCommandEscapesFilePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		rendered string
	}{
		{"space", "/tmp/my file.pdf", `/tmp/my\ file.pdf`},
		{"two spaces", "/tmp/my  file.pdf", `/tmp/my\ \ file.pdf`},
		{"metacharacters", "/tmp/a&b (1).pdf", `/tmp/a\&b\ \(1\).pdf`},
		{"quote", "/tmp/it's.pdf", `/tmp/it\'s.pdf`},
		{"utf-8", "/tmp/résumé.pdf", "/tmp/résumé.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, Options{FilePath: tt.path, Output: "/tmp/o.json"})
			cmd := BuildCommand(cfg)
			assert.Contains(t, cmd, tt.rendered)

			args, err := shellwords.Parse(cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.path, args[len(args)-1])
		})
	}
}

func TestBuildCommandKeepsNonUTF8Bytes(t *testing.T) {
	path := "/tmp/a\xffb.pdf"
	cfg := newTestConfig(t, Options{FilePath: path, Output: "/tmp/o.json"})
	cmd := BuildCommand(cfg)
	assert.Contains(t, cmd, " "+path)
	assert.NotContains(t, cmd, "\uFFFD")

	requireShell(t)
	stdout, _, err := ShellRunner{}.Run(context.Background(), Invocation{Command: "printf %s " + escapeSpaces(escapePath(path))}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte(path), stdout)
}

// Tabs and newlines are escaped, then folded into a single space by the
// whitespace collapse, so such paths do not survive rendering.
func TestBuildCommandFoldsControlWhitespaceInFilePath(t *testing.T) {
	for _, path := range []string{"/tmp/a\tb.pdf", "/tmp/a\nb.pdf"} {
		cfg := newTestConfig(t, Options{FilePath: path, Output: "/tmp/o.json"})
		cmd := BuildCommand(cfg)
		assert.NotContains(t, cmd, "\t")
		assert.NotContains(t, cmd, "\n")

		args, err := shellwords.Parse(cmd)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/a b.pdf", args[len(args)-1])
	}
}

func TestBuildCommandQuotesFlagValues(t *testing.T) {
	cfg := newTestConfig(t, Options{
		FilePath: "/tmp/doc.pdf",
		Output:   "/tmp/o.json",
		Password: String("a'b; rm -rf /"),
	})

	args, err := shellwords.Parse(BuildCommand(cfg))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"camelot",
		"--format", "json",
		"--password", "a'b; rm -rf /",
		"--output", "/tmp/o.json",
		"lattice",
		"/tmp/doc.pdf",
	}, args)
}

func TestBuildCommandVersion(t *testing.T) {
	cfg := newTestConfig(t, Options{Mode: constants.ModeVersion})
	assert.Equal(t, "camelot --version", BuildCommand(cfg))

	cfg = newTestConfig(t, Options{Mode: constants.ModeVersion, BinPath: "/usr/local/bin/camelot"})
	assert.Equal(t, "/usr/local/bin/camelot --version", BuildCommand(cfg))
}

func TestBuildCommandCollapsesWhitespace(t *testing.T) {
	cfg := newTestConfig(t, Options{BinPath: "  python -m   camelot ", FilePath: "/tmp/doc.pdf", Output: "/tmp/o.json"})
	assert.Equal(t, "python -m camelot --format json --output /tmp/o.json lattice /tmp/doc.pdf", BuildCommand(cfg))
}

func TestBuildCommandKeepsEmptyFlagValue(t *testing.T) {
	cfg := newTestConfig(t, Options{FilePath: "/tmp/doc.pdf", Output: "/tmp/o.json", StripText: String("")})
	assert.Contains(t, BuildCommand(cfg), "--strip_text '' lattice")
}
