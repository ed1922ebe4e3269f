package constants

import "strings"

// Format is the serialization camelot writes per detected table.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatExcel    Format = "excel"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatSQLite   Format = "sqlite"
)

// DefaultFormat is the structured format the result merger decodes.
const DefaultFormat = FormatJSON

var allFormats = []Format{FormatCSV, FormatJSON, FormatExcel, FormatHTML, FormatMarkdown, FormatSQLite}

// FormatsAsStringSlice returns every supported format.
func FormatsAsStringSlice() []string {
	result := make([]string, len(allFormats))
	for i, f := range allFormats {
		result[i] = string(f)
	}
	return result
}

// ParseFormat canonicalizes user input. Empty input maps to DefaultFormat.
func ParseFormat(input string) (Format, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DefaultFormat, true
	}
	for _, f := range allFormats {
		if normalized == string(f) {
			return f, true
		}
	}
	return DefaultFormat, false
}
