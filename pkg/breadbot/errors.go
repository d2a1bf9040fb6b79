package breadbot

import (
	"errors"
	"fmt"
)

// Build-time configuration errors. Build wraps them with the offending command.
var (
	ErrMissingCommandKey      = errors.New("command has no keys")
	ErrMissingArgumentMapper  = errors.New("no argument mapper for parameter type")
	ErrNoResultHandler        = errors.New("no result handler for return type")
	ErrDuplicateKey           = errors.New("duplicate command key")
	ErrNotACommand            = errors.New("type declares no commands")
	ErrUnsupportedHandlerFunc = errors.New("unsupported handler signature")
	ErrAlreadyBuilt           = errors.New("client builder already built")
)

// Dispatch-time conditions. They are logged, never returned to the chat user.
var (
	ErrNoSuchSubCommand = errors.New("no such sub-command")
	ErrParse            = errors.New("argument parsing failed")
)

// BreadBotError wraps failures raised while reflecting over or instantiating
// command sources.
type BreadBotError struct {
	Source string
	Err    error
}

func (e *BreadBotError) Error() string {
	if e.Source == "" {
		return "breadbot: " + e.Err.Error()
	}
	return fmt.Sprintf("breadbot: %s: %v", e.Source, e.Err)
}

func (e *BreadBotError) Unwrap() error { return e.Err }

func wrapError(source string, err error) error {
	if err == nil {
		return nil
	}
	var be *BreadBotError
	if errors.As(err, &be) {
		return err
	}
	return &BreadBotError{Source: source, Err: err}
}

// PanicError carries a value recovered from a panicking handler, preprocessor or
// result handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
