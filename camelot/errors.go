package camelot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a failed camelot run.
type ErrorKind int

const (
	KindExecution ErrorKind = iota
	KindNotInstalled
	KindFileNotFound
	KindDependency
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotInstalled:
		return "not_installed"
	case KindFileNotFound:
		return "file_not_found"
	case KindDependency:
		return "dependency_error"
	case KindTimeout:
		return "timeout"
	default:
		return "execution_error"
	}
}

var (
	ErrNotInstalled  = errors.New("the camelot command is not installed or not in the system PATH")
	ErrFileNotFound  = errors.New("input file not found")
	ErrDependency    = errors.New("dependency is not installed or not found in PATH")
	ErrExecution     = errors.New("camelot failed")
	ErrTimeout       = errors.New("camelot timed out")
	ErrInvalidTable  = errors.New("table output does not match schema")
	ErrInvalidOutput = errors.New("unreadable camelot output")
)

// Error is returned for every unsuccessful subprocess run. It carries the
// literal command line and captured stderr.
type Error struct {
	Kind    ErrorKind
	Command string
	Stderr  string
	Err     error // underlying exec or context error, may be nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s.\nCommand: %s\nError: %s", e.sentinel().Error(), e.Command, e.Stderr)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindNotInstalled:
		return ErrNotInstalled
	case KindFileNotFound:
		return ErrFileNotFound
	case KindDependency:
		return ErrDependency
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrExecution
	}
}

// GRPCStatus lets gRPC handlers return an *Error directly.
func (e *Error) GRPCStatus() *status.Status {
	var code codes.Code
	switch e.Kind {
	case KindNotInstalled, KindDependency:
		code = codes.FailedPrecondition
	case KindFileNotFound:
		code = codes.NotFound
	case KindTimeout:
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.New(code, e.sentinel().Error())
}

// classify maps stderr of a failed run onto an ErrorKind. Matching is by
// substring of camelot's (and the shell's) wording.
func classify(binPath, stderr string) ErrorKind {
	notFound := filepath.Base(binPath) + ": not found"
	switch {
	case strings.Contains(stderr, "command not found"),
		strings.Contains(stderr, "camelot: not found"),
		strings.Contains(stderr, notFound):
		return KindNotInstalled
	case strings.Contains(stderr, "Invalid value for 'FILEPATH'"):
		return KindFileNotFound
	case strings.Contains(stderr, "is not installed"), strings.Contains(stderr, "gs: not found"):
		return KindDependency
	}
	return KindExecution
}

func newRunError(ctx context.Context, cfg *Config, command string, stderr []byte, runErr error) *Error {
	e := &Error{
		Command: command,
		Stderr:  string(stderr),
		Err:     runErr,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.Kind = KindTimeout
		e.Err = ctx.Err()
		return e
	}
	e.Kind = classify(cfg.BinPath(), e.Stderr)
	return e
}
