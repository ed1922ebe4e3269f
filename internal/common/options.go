package common

import (
	"github.com/joseph-ayodele/camelot-go/camelot"
	"github.com/joseph-ayodele/camelot-go/constants"
)

// Options builds the invocation options for one input file from the
// configured defaults. Call Validate first.
func (c CamelotConfig) Options(filePath string) (camelot.Options, error) {
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return camelot.Options{}, err
	}
	mode, _ := constants.ParseMode(c.Mode)
	format, _ := constants.ParseFormat(c.Format)

	return camelot.Options{
		BinPath:        c.BinPath,
		Mode:           mode,
		FilePath:       filePath,
		Format:         format,
		Debug:          c.Debug,
		Env:            c.Env,
		Timeout:        timeout,
		ValidateTables: c.ValidateTables,
	}, nil
}
