// Package camelot runs the camelot CLI against a PDF and merges the
// per-table files it writes into a single Result.
package camelot
