package camelot

import (
	"regexp"
	"strings"

	"github.com/alessio/shellescape"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// BuildCommand renders cfg as one shell command line. Flag values are
// shell-quoted; positional values are rendered as-is, except the input file
// path which is backslash-escaped.
func BuildCommand(cfg *Config) string {
	args := cfg.Args()
	parts := make([]string, 0, len(args))

	for _, a := range args {
		value := a.Value
		if a.Param.Kind == ParamFlag {
			value = shellescape.Quote(value)
		}
		if a.Param.Name == ParamFilePath {
			value = escapeSpaces(escapePath(value))
		}

		if a.Param.Kind == ParamFlag {
			parts = append(parts, a.Param.Flag+" "+value)
		} else {
			parts = append(parts, value)
		}
	}

	command := strings.TrimSpace(strings.Join(parts, " "))
	return reWhitespace.ReplaceAllString(command, " ")
}

// escapePath backslash-escapes shell metacharacters. Spaces are left for
// escapeSpaces. Works on bytes; anything outside ASCII is copied as-is.
func escapePath(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != ' ' && needsEscape(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func escapeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", `\ `)
}

func needsEscape(c byte) bool {
	if c >= 0x80 {
		return false
	}
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	}
	return strings.IndexByte("_@%+=:,./-", c) < 0
}
