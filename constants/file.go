package constants

import "strings"

// DefaultBinary is the camelot executable looked up on PATH.
const DefaultBinary = "camelot"

// DefaultOutputName is the output file placed inside an auto-allocated temp dir.
const DefaultOutputName = "tables.json"

// TempDirPattern is passed to os.MkdirTemp for auto-allocated output dirs.
const TempDirPattern = "camelot-*"

// AllowedExtensions holds the input extensions the batch CLI picks up.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
