package constants

import "strings"

// Mode selects the camelot parsing flavor. Version is an administrative
// pseudo-mode that only queries the installed tool.
type Mode string

const (
	ModeHybrid  Mode = "hybrid"
	ModeLattice Mode = "lattice"
	ModeNetwork Mode = "network"
	ModeStream  Mode = "stream"
	ModeVersion Mode = "version"
)

// DefaultMode is used when no mode is supplied.
const DefaultMode = ModeLattice

var allModes = []Mode{
	ModeHybrid,
	ModeLattice,
	ModeNetwork,
	ModeStream,
	ModeVersion,
}

// ModesAsStringSlice returns every supported mode.
func ModesAsStringSlice() []string {
	result := make([]string, len(allModes))
	for i, m := range allModes {
		result[i] = string(m)
	}
	return result
}

// ParseMode canonicalizes user input. Empty input maps to DefaultMode.
func ParseMode(input string) (Mode, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DefaultMode, true
	}
	for _, m := range allModes {
		if normalized == string(m) {
			return m, true
		}
	}
	return DefaultMode, false
}
