package tileui

import (
	"errors"
	"fmt"
)

var (
	// ErrPersonalMainProvider is returned when a personal root would draw
	// straight into the shared world, which cannot hide it from other users.
	ErrPersonalMainProvider = errors.New("tileui: personal interface is not supported with the main provider")
	// ErrRootExists is returned by Create for a name already in use.
	ErrRootExists = errors.New("tileui: root already exists")
	// ErrNotCreated is returned for roots that were never created or were
	// destroyed.
	ErrNotCreated = errors.New("tileui: root is not created")
)

// CallbackError wraps a panic raised by user code invoked during dispatch or
// the sync pass. It is reported to the UI's error handler and never
// propagates to the caller.
type CallbackError struct {
	Node  string
	Op    string
	Value any
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("tileui: %s of %q panicked: %v", e.Op, e.Node, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// handleError logs err and forwards it to the configured handler.
func (u *UI) handleError(err error) {
	u.logger.Error("tileui: callback failed", "err", err)
	if h := u.ErrorHandler; h != nil {
		h(err)
	}
}
