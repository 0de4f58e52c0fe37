package bids

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("bid not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrItemNotFound      = errors.New("checklist item not found")
	ErrDocumentNotFound  = errors.New("document not found")
)

// TransitionError describes a rejected stage advance.
type TransitionError struct {
	Stage  Stage
	Status Status
}

func (e *TransitionError) Error() string {
	if e.Status.IsTerminal() {
		return fmt.Sprintf("invalid transition: bid is %s", e.Status)
	}
	return fmt.Sprintf("invalid transition: cannot advance from %q", e.Stage)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
