// Package script defines the door-script engine contract. The core
// lists script metadata and gates access by role; execution is left to
// a host-wired Engine. The default engine refuses to run anything.
package script

import (
	"context"
	"errors"
	"io"
)

// ErrEngineDisabled is returned by the default engine for every run.
var ErrEngineDisabled = errors.New("script engine is disabled")

// Engine executes a registered script against a session's terminal
// streams. Run blocks until the script finishes or ctx is cancelled.
type Engine interface {
	Run(ctx context.Context, path string, in io.Reader, out io.Writer) error
}

// DisabledEngine is the default Engine.
type DisabledEngine struct{}

var _ Engine = DisabledEngine{}

// Run always fails with ErrEngineDisabled.
func (DisabledEngine) Run(context.Context, string, io.Reader, io.Writer) error {
	return ErrEngineDisabled
}
